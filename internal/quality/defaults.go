package quality

// DefaultAllowedCategories is the product category enumeration. The
// lower-case "n/a" sentinel marks rows whose category is genuinely
// unknown; anything else outside the set is a data defect.
var DefaultAllowedCategories = []string{
	"books", "clothing", "electronics", "home", "toys", "n/a",
}

// DefaultRules is the built-in silver-layer catalog. Deployments tune it
// through checks.overrides and extend it through checks.custom; order
// here fixes report order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Dataset: "customers",
			Name:    "row_count",
			Kind:    KindRowCount,
			Details: "loaded customer rows, trend signal only",
		},
		{
			Dataset: "customers",
			Name:    "missing_id",
			Kind:    KindNotNull,
			Params:  RuleParams{Column: "id"},
			Details: "every customer must carry an id",
		},
		{
			Dataset: "customers",
			Name:    "duplicate_id",
			Kind:    KindUnique,
			Params:  RuleParams{Column: "id"},
			Details: "customer ids must be unique",
		},
		{
			Dataset: "customers",
			Name:    "null_name_pct",
			Kind:    KindMaxMissingPct,
			Params:  RuleParams{Column: "name", CeilingPct: 5},
			Details: "share of customers without a name",
		},
		{
			Dataset: "products",
			Name:    "row_count",
			Kind:    KindRowCount,
			Details: "loaded product rows, trend signal only",
		},
		{
			Dataset: "products",
			Name:    "missing_name",
			Kind:    KindNotNull,
			Params:  RuleParams{Column: "product_name"},
			Details: "every product must carry a name",
		},
		{
			Dataset: "products",
			Name:    "duplicate_id",
			Kind:    KindUnique,
			Params:  RuleParams{Column: "id"},
			Details: "product ids must be unique",
		},
		{
			Dataset: "products",
			Name:    "valid_category",
			Kind:    KindAllowedValues,
			Params:  RuleParams{Column: "category", Allowed: DefaultAllowedCategories},
			Details: "category must be a known value or the n/a sentinel",
		},
		{
			Dataset: "products",
			Name:    "negative_price",
			Kind:    KindExpression,
			Params: RuleParams{
				Columns:    []string{"price"},
				Expression: "double(row.price) < 0.0",
			},
			Details: "list prices are never negative",
		},
		{
			Dataset: "sales",
			Name:    "row_count",
			Kind:    KindRowCount,
			Details: "loaded sale rows, trend signal only",
		},
		{
			Dataset: "sales",
			Name:    "duplicate_id",
			Kind:    KindUnique,
			Params:  RuleParams{Column: "id"},
			Details: "sale ids must be unique",
		},
		{
			Dataset: "sales",
			Name:    "missing_customer_pct",
			Kind:    KindMaxMissingPct,
			Params:  RuleParams{Column: "customer_id", CeilingPct: 5},
			Details: "share of sales without a customer reference",
		},
		{
			Dataset: "sales",
			Name:    "sales_consistency",
			Kind:    KindExpression,
			Params: RuleParams{
				Columns:    []string{"sales", "quantity", "price"},
				Expression: "double(row.sales) != double(row.quantity) * math.abs(double(row.price))",
			},
			Details: "sales amount must equal quantity times absolute unit price",
		},
	}
}
