package tabular

import "strings"

// headerMap maps the human-readable labels used in summary exports to field
// names. Labels are kept exactly as they appear in the exports, misspellings
// included.
var headerMap = map[string]string{
	"Customer":                                      "customerName",
	"W.average collection":                          "weightedAverageCollection",
	"W.bc due days":                                 "weightedBcDueDays",
	"Final wighted Days":                            "finalWeightedDays",
	"Final weighted Days":                           "finalWeightedDays",
	"Invoice Number":                                "invoiceNumber",
	"Invoice_Value":                                 "invoiceValue",
	"Deductions":                                    "deductions",
	"Net_invoice":                                   "netInvoice",
	"Ip_Value":                                      "ipValue",
	"Bc_due":                                        "bcDue",
	"W.average receipt days for receipt collection": "wAverageReceiptDays",
	"% of collection":                               "percentOfCollection",
	"average receipt days for 100%":                 "averageReceiptDays100",
	"bc age days":                                   "bcAgeDays",
	"Bc %":                                          "bcPercent",
	"invoce number":                                 "invoiceNumber",
	"invoice date":                                  "invoiceDate",
	"outstanding":                                   "outstanding",
	"age days":                                      "ageDays",
}

var foldedHeaderMap = func() map[string]string {
	folded := make(map[string]string, len(headerMap))
	for label, field := range headerMap {
		folded[strings.ToLower(label)] = field
	}
	return folded
}()

// NormalizeHeader returns the field name for a column label. Exact matches win
// over case-insensitive ones; unknown labels come back trimmed.
func NormalizeHeader(label string) string {
	trimmed := strings.TrimSpace(label)
	if field, ok := headerMap[trimmed]; ok {
		return field
	}
	if field, ok := foldedHeaderMap[strings.ToLower(trimmed)]; ok {
		return field
	}
	return trimmed
}
