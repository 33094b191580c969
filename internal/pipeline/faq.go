package pipeline

import (
	"fmt"
	"strings"

	"salesdesk/internal/model"
)

// MatchFAQ answers from curated FAQs. A direct hit returns that FAQ; failing
// that, a category named by the query returns its first FAQ or a prompt to
// be more specific. Nil when no category tag appears in the query.
func MatchFAQ(query string, project *model.Project, faqs []model.FAQ) *model.QueryResult {
	lower := strings.ToLower(query)

	for _, faq := range faqs {
		categoryID := Categorize(faq)
		category, _ := CategoryByID(categoryID)

		if !faqHit(lower, faq, category) {
			continue
		}

		text := faq.Answer
		if project != nil {
			text += categorySuffix(categoryID, faq.Answer)
		}
		return &model.QueryResult{
			Text:         text,
			Type:         model.ResultFAQ,
			RelatedItems: []model.RelatedItem{model.FAQItem(faq)},
		}
	}

	category, ok := CategoryForQuery(lower)
	if !ok {
		return nil
	}
	if inCategory := FAQsByCategory(faqs, category.ID); len(inCategory) > 0 {
		first := inCategory[0]
		return &model.QueryResult{
			Text:         fmt.Sprintf("%s\n\nCategory: %s", first.Answer, category.Name),
			Type:         model.ResultFAQ,
			RelatedItems: []model.RelatedItem{model.FAQItem(first)},
		}
	}

	name := "this project"
	if project != nil {
		name = project.Name
	}
	return general(fmt.Sprintf("I found questions related to %s (%s). Please ask a more specific question about %s regarding %s.",
		category.Name, category.Description, name, strings.ToLower(category.Description)))
}

func faqHit(lower string, faq model.FAQ, category model.Category) bool {
	for _, tag := range faq.Tags {
		if tag != "" && strings.Contains(lower, strings.ToLower(tag)) {
			return true
		}
	}
	if strings.Contains(strings.ToLower(faq.Question), lower) || strings.Contains(strings.ToLower(faq.Answer), lower) {
		return true
	}
	return anyTagIn(category.Tags, lower)
}

func categorySuffix(categoryID, answer string) string {
	switch categoryID {
	case "financial":
		if strings.Contains(answer, "₹") {
			return "\n\nCategory: Financial Information"
		}
	case "location":
		return "\n\nCategory: Location & Connectivity"
	case "developer":
		return "\n\nCategory: Developer Information"
	}
	return ""
}
