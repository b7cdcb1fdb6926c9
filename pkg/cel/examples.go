package cel

// ViolationExpressionExamples documents the predicate shapes supported for
// expression rules. Each returns true when the row is inconsistent.
// Numeric comparisons cast through double() because row fields are
// dynamic and arrive as int64 or float64 depending on the column type.
var ViolationExpressionExamples = map[string]string{
	"sales_consistency":    `double(row.sales) != double(row.quantity) * math.abs(double(row.price))`,
	"negative_amount":      `double(row.amount) < 0.0`,
	"date_order":           `row.shipped_at < row.ordered_at`,
	"conditional_field":    `row.status == "closed" && row.closed_at == ""`,
	"string_format":        `!string(row.country_code).matches("^[A-Z]{2}$")`,
	"bounded_percentage":   `double(row.discount_pct) < 0.0 || double(row.discount_pct) > 100.0`,
	"cross_field_equality": `double(row.net) + double(row.tax) != double(row.gross)`,
}
