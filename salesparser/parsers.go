package salesparser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/giygas/hwi-pipeline/salesparser/entities"
)

// Only the top 20 ranked rows of an ETAT_2080QTE extract are kept.
const maxRank = 20

// MaxQuantity is the largest quantity a single sale row can carry.
const MaxQuantity = math.MaxInt32

var (
	lineSplitter  = regexp.MustCompile(`\r?\n`)
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt    = regexp.MustCompile(`^[+-]?\d+`)
)

// ParseFrenchNumber reads a POS quantity such as "2,561" or "2 561" and returns 2561.
// Whitespace (including non-breaking spaces) and commas are dropped, the leading
// numeric part is parsed and rounded to the nearest integer. Unparseable or
// negative input yields 0; quantities above MaxQuantity are capped.
func ParseFrenchNumber(val string) int {
	if val == "" {
		return 0
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || r == '\uFEFF' {
			return -1
		}
		return r
	}, val)

	match := leadingNumber.FindString(cleaned)
	if match == "" {
		return 0
	}

	num, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
		return 0
	}

	switch {
	case num < 0:
		return 0
	case num > MaxQuantity:
		return MaxQuantity
	}

	// Halves round up, as the POS totals do
	return int(math.Floor(num + 0.5))
}

// ParseCSVLine splits one CSV line on commas, honouring double quotes.
// Quote characters toggle the quoted state and are dropped; every field is trimmed.
// A trailing empty field is not emitted.
func ParseCSVLine(line string) []string {
	result := []string{}
	var current strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}

	if current.Len() > 0 {
		result = append(result, strings.TrimSpace(current.String()))
	}

	return result
}

// ParseEtat2080 parses an ETAT_2080QTE "top 20 products" extract.
func ParseEtat2080(content string) []entities.ProductSale {
	lines := lineSplitter.Split(content, -1)
	rows := []entities.ProductSale{}

	headerIdx := -1
	for i, l := range lines {
		if strings.Contains(l, "Rang") && strings.Contains(l, "Code") && strings.Contains(l, "signation") {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return rows
	}

	codeIdx, designationIdx, qteIdx := -1, -1, -1
	for i, h := range ParseCSVLine(lines[headerIdx]) {
		h = strings.TrimSpace(h)
		if codeIdx < 0 && h == "Code" {
			codeIdx = i
		}
		if designationIdx < 0 && strings.Contains(h, "signation") {
			designationIdx = i
		}
		if qteIdx < 0 && strings.Contains(h, "Qt") && strings.Contains(h, "vendue") {
			qteIdx = i
		}
	}

	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "LISTE DES") {
			break
		}

		parts := ParseCSVLine(line)
		if len(parts) < 3 {
			continue
		}

		code := fieldOr(parts, codeIdx, parts[1])
		designation := fieldOr(parts, designationIdx, parts[2])
		qte := ParseFrenchNumber(fieldOr(parts, qteIdx, parts[len(parts)-1]))

		rank, ok := parseLeadingInt(parts[0])
		if ok && rank >= 1 && rank <= maxRank && code != "" && qte > 0 {
			rows = append(rows, entities.ProductSale{Code: code, Designation: designation, Quantity: qte})
		}
	}

	return rows
}

// ParseListeProduits parses an ETAT_ListeProduitsVendus "full product list" extract.
// Only the first product table is read.
func ParseListeProduits(content string) []entities.ProductSale {
	lines := lineSplitter.Split(content, -1)
	rows := []entities.ProductSale{}

	for i, line := range lines {
		if !strings.Contains(line, "Code,Désignation,Qté vendue") || !strings.Contains(line, "Stock") {
			continue
		}

		for _, row := range lines[i+1:] {
			if strings.TrimSpace(row) == "" || strings.Contains(row, "Code Géo :") || strings.Contains(row, "Nombre d") {
				break
			}

			// This layout never quotes its fields
			parts := strings.Split(row, ",")
			if len(parts) < 3 {
				continue
			}

			code := strings.TrimSpace(parts[0])
			designation := strings.TrimSpace(parts[1])
			qte := ParseFrenchNumber(parts[2])
			if code != "" && qte > 0 {
				rows = append(rows, entities.ProductSale{Code: code, Designation: designation, Quantity: qte})
			}
		}
		break
	}

	return rows
}

// InferParserType picks the extract layout from the file name.
func InferParserType(file string) entities.ParserType {
	if strings.Contains(file, "ListeProduitsVendus") {
		return entities.ParserListeProduits
	}
	return entities.ParserEtat2080
}

// parserFor returns the row parser for a layout.
func parserFor(pt entities.ParserType) func(string) []entities.ProductSale {
	if pt == entities.ParserListeProduits {
		return ParseListeProduits
	}
	return ParseEtat2080
}

func fieldOr(parts []string, idx int, fallback string) string {
	if idx >= 0 && idx < len(parts) {
		return strings.TrimSpace(parts[idx])
	}
	return fallback
}

func parseLeadingInt(s string) (int, bool) {
	match := leadingInt.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}
