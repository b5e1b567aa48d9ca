package llm

import (
	"fmt"
	"strings"
)

// OCRPrompt is the instruction sent with every receipt image.
const OCRPrompt = "Extract all text from this receipt. Preserve line breaks and print prices exactly as shown."

const structureSystemPrompt = "You convert receipt text into JSON. Respond with ONLY a valid JSON object. " +
	"Do not include explanatory text or markdown formatting. Start your response with { and end with }."

// BuildStructurePrompt asks the classifier to turn raw OCR text into a
// receipt record using only the given categories.
func BuildStructurePrompt(rawText string, categories []string) string {
	var b strings.Builder

	b.WriteString("Here is the OCR text of a receipt:\n\n")
	b.WriteString(strings.TrimSpace(rawText))
	b.WriteString("\n\nI have the following spending categories:\n")
	for _, c := range categories {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString(`
Return valid JSON with exactly these keys:
- vendor (string)
- date (string, format DD/MM/YYYY if possible)
- total_amount (number)
- line_items: list of objects, each with:
  - item (string)
  - price (number)
  - category (string), one of the categories above; use the closest match if none fits exactly

Keep line items in receipt order. Discounts, coupons and refunds are line items with a negative price,
placed directly after the item they apply to. Do not include any other fields.`)

	return b.String()
}
