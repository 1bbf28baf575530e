package chat

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/deudbot/backend/internal/phone"
	"github.com/shopspring/decimal"
)

// Matching is ordered and short-circuiting: the first matcher whose shape fits
// wins. Keyword intents run before the "name - amount" / "name + amount"
// operator patterns so a debtor literally named "nuevo" or a name ending in
// digits can never shadow a keyword command.
type matcher interface {
	// tryMatch gets the trimmed input and its lowercase form. Returning
	// ok=false hands the line to the next matcher.
	tryMatch(input, lower string) (Intent, bool)
}

type Parser struct {
	matchers []matcher
}

func NewParser() *Parser {
	return &Parser{
		matchers: []matcher{
			keywordMatcher{words: []string{"ayuda", "help", "?"}, intent: HelpIntent{}},
			keywordMatcher{words: []string{"lista", "ls", "ver", "todos"}, intent: ListIntent{}},
			keywordMatcher{words: []string{"total", "resumen"}, intent: TotalsIntent{}},
			prefixMatcher{words: []string{"nuevo", "new", "agregar", "add"}, build: buildNewDebtor},
			prefixMatcher{words: []string{"borrar", "eliminar", "delete", "del", "remove"}, build: buildDelete},
			prefixMatcher{words: []string{"info", "ver", "detalle", "detalles"}, build: buildInfo},
			prefixMatcher{words: []string{"notificar", "enviar", "notify", "send", "recordar"}, build: buildNotify},
			operatorMatcher{re: paymentRe, build: buildPayment},
			operatorMatcher{re: chargeRe, build: buildCharge},
		},
	}
}

// Parse classifies one line of input. It never fails: unmatched input yields
// UnknownIntent.
func (p *Parser) Parse(line string) Intent {
	input := strings.TrimSpace(line)
	lower := strings.ToLower(input)

	for _, m := range p.matchers {
		if intent, ok := m.tryMatch(input, lower); ok {
			return intent
		}
	}
	return UnknownIntent{Input: input}
}

// keywordMatcher matches the whole line against a fixed synonym set.
type keywordMatcher struct {
	words  []string
	intent Intent
}

func (m keywordMatcher) tryMatch(_, lower string) (Intent, bool) {
	for _, w := range m.words {
		if lower == w {
			return m.intent, true
		}
	}
	return nil, false
}

// prefixMatcher matches "<keyword> <rest>" and delegates the rest to build.
// A build that rejects the rest lets the line fall through to later matchers.
type prefixMatcher struct {
	words []string
	build func(rest string) (Intent, bool)
}

func (m prefixMatcher) tryMatch(input, lower string) (Intent, bool) {
	for _, w := range m.words {
		if !strings.HasPrefix(lower, w) {
			continue
		}
		tail := input[len(w):]
		if tail == "" || !unicode.IsSpace(rune(tail[0])) {
			continue
		}
		rest := strings.TrimSpace(tail)
		if rest == "" {
			continue
		}
		return m.build(rest)
	}
	return nil, false
}

var (
	// Amount grammar: mandatory integer part, optional fraction, no sign.
	// The separator may be a hyphen or an en-dash, anchored to line end.
	paymentRe = regexp.MustCompile(`^(.+?)\s*[-–]\s*(\d+(?:\.\d+)?)$`)
	chargeRe  = regexp.MustCompile(`^(.+?)\s*\+\s*(\d+(?:\.\d+)?)$`)
)

// operatorMatcher matches "<name> <op> <amount>" suffix patterns.
type operatorMatcher struct {
	re    *regexp.Regexp
	build func(name string, amount decimal.Decimal) Intent
}

func (m operatorMatcher) tryMatch(input, _ string) (Intent, bool) {
	match := m.re.FindStringSubmatch(input)
	if match == nil {
		return nil, false
	}
	amount, err := decimal.NewFromString(match[2])
	if err != nil {
		return nil, false
	}
	return m.build(strings.TrimSpace(match[1]), amount), true
}

func buildPayment(name string, amount decimal.Decimal) Intent {
	return PaymentIntent{Query: name, Amount: amount}
}

func buildCharge(name string, amount decimal.Decimal) Intent {
	return ChargeIntent{Query: name, Amount: amount}
}

func buildDelete(rest string) (Intent, bool) {
	return DeleteIntent{Query: rest}, true
}

func buildInfo(rest string) (Intent, bool) {
	return InfoIntent{Query: rest}, true
}

func buildNotify(rest string) (Intent, bool) {
	target := strings.ToLower(rest)
	if target == "todos" || target == "all" {
		return NotifyIntent{All: true}, true
	}
	return NotifyIntent{Query: rest}, true
}

// buildNewDebtor splits "<name tokens...> <digit tokens...> [amount]". The
// name is every leading token that does not start with a digit. If the digit
// tokens before the last one already form a valid phone, the last token is a
// starting-debt amount; otherwise the whole digit region must be the phone.
func buildNewDebtor(rest string) (Intent, bool) {
	parts := strings.Fields(rest)

	nameEnd := -1
	for i, p := range parts {
		if p[0] >= '0' && p[0] <= '9' {
			nameEnd = i
			break
		}
	}
	if nameEnd <= 0 {
		return nil, false
	}

	name := strings.Join(parts[:nameEnd], " ")
	digitParts := parts[nameEnd:]

	if len(digitParts) >= 2 {
		phoneDigits := phone.Normalize(strings.Join(digitParts[:len(digitParts)-1], ""))
		if len(phoneDigits) >= 10 && len(phoneDigits) <= 15 {
			amount, err := decimal.NewFromString(digitParts[len(digitParts)-1])
			if err == nil && !amount.IsNegative() {
				return NewDebtorIntent{Name: name, Phone: phoneDigits, StartingBalance: amount}, true
			}
		}
	}

	allDigits := phone.Normalize(strings.Join(digitParts, ""))
	if len(allDigits) >= 10 && len(allDigits) <= 15 {
		return NewDebtorIntent{Name: name, Phone: allDigits, StartingBalance: decimal.Zero}, true
	}
	return nil, false
}
