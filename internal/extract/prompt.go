package extract

import "fmt"

// systemInstruction is the fixed extraction persona. It is identical for
// every submission, which makes it a good prompt-cache prefix for bulk runs.
const systemInstruction = "You are a data extraction specialist. Extract booking information " +
	"from media booking orders and return it as a valid JSON object with the exact structure " +
	"specified. Ensure all dates are in YYYY-MM-DD format and numbers are numeric values."

// targetShape is the 24-field contract the model must return. Fields that
// cannot be found in the source are explicit nulls, never omitted keys.
const targetShape = `{
  "clientName": "string",
  "contactName": "string",
  "contactEmail": "string",
  "contactPhone": "string",
  "address": "string",
  "industrySegment": "string",
  "taxRegistrationNo": "string",
  "campaignName": "string",
  "campaignRef": "string",
  "startDate": "YYYY-MM-DD",
  "endDate": "YYYY-MM-DD",
  "creativeDeliveryDate": "YYYY-MM-DD",
  "mediaType": "string",
  "placementPreferences": "string",
  "grossAmount": number,
  "partnerDiscount": number,
  "additionalCharges": number,
  "netAmount": number,
  "creativeFileLink": "string",
  "creativeSpecs": "string",
  "specialInstructions": "string",
  "signatoryName": "string",
  "signatoryTitle": "string",
  "signatureDate": "YYYY-MM-DD"
}`

const promptHeader = `Extract booking information from the following %s and return it as a valid JSON object with the exact structure shown below.
If a field is not found, use null for that field.

Required JSON structure:
%s
`

// textPrompt builds the user message for an inline free-text submission.
func textPrompt(text string) string {
	return fmt.Sprintf(promptHeader, "text", targetShape) +
		"\nText to analyze:\n" + text +
		"\n\nReturn only the JSON object, no additional text or explanations."
}

// documentPrompt builds the user message accompanying an attached PDF.
func documentPrompt() string {
	return fmt.Sprintf(promptHeader, "attached document", targetShape) +
		"\nReturn only the JSON object, no additional text or explanations."
}
