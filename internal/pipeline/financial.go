package pipeline

import (
	"fmt"
	"strings"

	"salesdesk/internal/model"
)

var financialKeywords = []string{"price", "cost", "payment", "loan", "discount", "maintenance", "charges", "starting"}

func processFinancial(in *Input) *model.QueryResult {
	lower := in.lower()
	if containsAny(lower, financialKeywords) {
		return pricingOverview(in)
	}
	if strings.Contains(lower, "under") && (strings.Contains(lower, "cr") || strings.Contains(lower, "crore")) {
		return budgetSearch(in, lower)
	}
	return nil
}

func pricingOverview(in *Input) *model.QueryResult {
	p := in.Project
	if p == nil {
		return general("Please select a project to get specific pricing information.")
	}

	units := in.scoped(in.Units)
	if len(units) == 0 {
		if text := narrative(p, model.TopicFinancial); text != "" {
			return projectResult(p, text)
		}
		return projectResult(p, fmt.Sprintf("**%s Pricing Information:**\n\nFor current pricing, payment plans, and special offers, please contact our sales team. We have flexible financing options and can assist with loan approvals through our partner banks.", p.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s Pricing Overview:**\n\n", p.Name)
	lo, hi, _ := PriceBounds(unitPrices(units))
	fmt.Fprintf(&b, "• **Price Range:** ₹%s - %s Crore\n", CroreString(lo), CroreString(hi))
	fmt.Fprintf(&b, "• **Available Units:** %d units ready for booking\n\n", countAvailable(units))

	b.WriteString("**By Unit Type:**\n")
	order, groups := groupByType(units)
	for _, typ := range order {
		group := groups[typ]
		tlo, thi, _ := PriceBounds(unitPrices(group))
		fmt.Fprintf(&b, "• **%s:** ₹%s", typ, CroreString(tlo))
		if tlo != thi {
			fmt.Fprintf(&b, " - %s", CroreString(thi))
		}
		fmt.Fprintf(&b, " Cr (%d available)\n", countAvailable(group))
	}

	b.WriteString("\n**Additional Information:**\n")
	b.WriteString("• Flexible payment plans available\n")
	b.WriteString("• Home loan assistance through partner banks\n")
	b.WriteString("• Maintenance charges: Approx. ₹2-3 per sq.ft/month\n")
	b.WriteString("• Current offers and discounts available - speak with sales team\n")

	return projectResult(p, b.String())
}

// budgetSearch answers "under N crore". Without a number there is no
// ceiling to apply, so the processor declines.
func budgetSearch(in *Input, lower string) *model.QueryResult {
	n, ok := FirstNumber(lower)
	if !ok {
		return nil
	}
	limit := n * Crore
	scope := in.scopeName("our portfolio")

	var matched []model.Unit
	for _, u := range in.scoped(in.Units) {
		if float64(u.Price) < limit {
			matched = append(matched, u)
		}
	}

	if len(matched) == 0 {
		return general(fmt.Sprintf("**No properties found under ₹%s Crore** in %s.\n\nTry searching for a higher budget range or contact our sales team for upcoming launches in your budget.", CroreShort(limit), scope))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Properties Under ₹%s Crore:**\n\n", CroreShort(limit))
	fmt.Fprintf(&b, "Found %d units in %s\n\n", len(matched), scope)
	order, groups := groupByType(matched)
	for _, typ := range order {
		fmt.Fprintf(&b, "• **%s:** %d units (%d available)\n", typ, len(groups[typ]), countAvailable(groups[typ]))
	}
	return unitResult(b.String(), matched)
}

func unitPrices(units []model.Unit) []int64 {
	prices := make([]int64, len(units))
	for i, u := range units {
		prices[i] = u.Price
	}
	return prices
}
