package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesdesk/internal/catalog"
	"salesdesk/internal/model"
)

func loadStore(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	f, err := catalog.LoadFixture("")
	require.NoError(t, err)
	return catalog.NewMemoryStore(f)
}

// input builds the same snapshot the query service would for projectID.
func input(t *testing.T, query, projectID string) *Input {
	t.Helper()
	snap, err := catalog.LoadSnapshot(context.Background(), loadStore(t), projectID)
	require.NoError(t, err)
	return NewInput(query, snap)
}

func relatedIDs(r *model.QueryResult) []string {
	if r == nil {
		return nil
	}
	return r.RelatedIDs()
}

func TestBudgetBelowEveryPrice(t *testing.T) {
	in := input(t, "Show me properties under 1 crore", "greenfield-1")
	in.Units = catalog.FilterByProject(in.Units, "greenfield-1")

	r, name := RunProcessors(in)
	require.NotNil(t, r)
	assert.Equal(t, model.TopicFinancial, name)
	assert.Equal(t, model.ResultGeneral, r.Type)
	assert.Contains(t, r.Text, "No properties found under ₹1 Crore")
	assert.Contains(t, r.Text, "in Greenfield.")
	assert.Empty(t, r.RelatedItems)
}

func TestBedroomCount(t *testing.T) {
	r, name := RunProcessors(input(t, "3 BHK", "greenfield-1"))
	require.NotNil(t, r)
	assert.Equal(t, "bedroom", name)
	assert.Equal(t, model.ResultUnit, r.Type)
	assert.Equal(t, []string{"unit-1"}, relatedIDs(r))
	assert.Contains(t, r.Text, "1 3 BHK properties")
}

func TestAmenitiesDigest(t *testing.T) {
	r, name := RunProcessors(input(t, "What are the amenities in Greenfield?", "greenfield-1"))
	require.NotNil(t, r)
	assert.Equal(t, "amenities", name)
	assert.Equal(t, model.ResultProject, r.Type)
	assert.Equal(t, []string{"greenfield-1"}, relatedIDs(r))
	assert.Equal(t,
		"Greenfield offers a wide range of amenities including: "+
			"Community spaces (Clubhouse with swimming pool, Multi-purpose hall, Indoor games room), "+
			"Health & wellness facilities (Fully equipped gymnasium, Jogging track, Yoga deck), "+
			"Convenience features (24/7 security, Power backup, Rainwater harvesting), "+
			"and Outdoor spaces (Children's play area, Landscaped gardens).",
		r.Text)
}

func TestPenthousesAcrossPortfolio(t *testing.T) {
	r, name := RunProcessors(input(t, "penthouse", ""))
	require.NotNil(t, r)
	assert.Equal(t, model.TopicPenthouse, name)
	assert.Equal(t, model.ResultUnit, r.Type)
	assert.Equal(t, []string{"unit-2", "unit-6", "unit-8"}, relatedIDs(r))
	assert.Equal(t, "I found 3 penthouses in our portfolio.", r.Text)
}

func TestProcessors_NoProjectAsksForOne(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"location", "Please select a project to get location-specific information."},
		{"who is the developer", "Please select a project to get developer-specific information."},
		{"green building", "Please select a project to get specific information about green building features."},
		{"layout", "Please select a project to get specific layout information."},
		{"amenities", "Please select a project to get specific amenity information."},
		{"parking", "Please select a project to get specific information about parking facilities."},
		{"construction", "Please select a project to get specific information about construction quality."},
		{"flooring", "Please select a project to get specific specification information."},
		{"power backup", "Please select a project to get specific information about utilities and services."},
		{"price", "Please select a project to get specific pricing information."},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r, _ := RunProcessors(input(t, tt.query, ""))
			require.NotNil(t, r)
			assert.Contains(t, []model.ResultType{model.ResultGeneral, model.ResultProject}, r.Type)
			assert.Equal(t, tt.want, r.Text)
		})
	}
}

func TestProcessors_NarrativesAndGenericCopy(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		project   string
		processor string
		wantType  model.ResultType
		prefix    string
	}{
		{"location narrative", "how far is the airport", "greenfield-1", model.TopicLocation, model.ResultProject,
			"Greenfield is located in Shantigram, near SG Highway with excellent connectivity: 5 mins"},
		{"developer generic", "tell me about the builder", "greenfield-1", model.TopicDeveloper, model.ResultProject,
			"Greenfield is developed by Shivalik Developers, a reputable developer in the real estate sector."},
		{"eco narrative uses certification", "sustainable", "greenfield-1", model.TopicEco, model.ResultProject,
			"Greenfield is a IGBC pre-certified Platinum rated Green Building with 70% open space design."},
		{"eco generic", "sustainable", "edge-4", model.TopicEco, model.ResultProject,
			"EDGE incorporates modern design principles"},
		{"parking narrative uses parking field", "parking", "greenfield-1", model.TopicParking, model.ResultProject,
			"Greenfield provides 2-level basement parking with designated spaces. Visitor parking is also available."},
		{"parking generic from field", "parking", "edge-4", model.TopicParking, model.ResultProject,
			"EDGE provides Covered parking with EV charging points."},
		{"commercial narrative", "showroom", "splus-2", model.TopicCommercial, model.ResultProject,
			"S Plus is a premier commercial development"},
		{"commercial elsewhere", "showroom", "greenfield-1", model.TopicCommercial, model.ResultGeneral,
			"We have commercial offerings such as S Plus. Would you like more information"},
		{"penthouse narrative", "top floor", "skyview-3", model.TopicPenthouse, model.ResultUnit,
			"SKYVIEW offers luxurious penthouses on the 33rd floor"},
		{"penthouse elsewhere", "penthouse", "splus-2", model.TopicPenthouse, model.ResultUnit,
			"While S Plus doesn't offer penthouses, we have 3 penthouses in other projects in our portfolio."},
		{"wfh narrative", "wfh", "edge-4", model.TopicWorkFromHome, model.ResultProject,
			"EDGE is specifically designed with the modern work-life balance in mind"},
		{"wfh units elsewhere", "home office", "greenfield-1", model.TopicWorkFromHome, model.ResultUnit,
			"We have 2 units specifically designed with work-from-home features in our portfolio. The EDGE project"},
		{"specifications rendered from data", "flooring", "edge-4", model.TopicSpecifications, model.ResultProject,
			"EDGE specifications include electrical: Smart home automation ready, Dedicated IT infrastructure; flooring:"},
		{"utilities generic", "sewage", "edge-4", model.TopicUtilities, model.ResultProject,
			"EDGE is equipped with modern utility systems"},
		{"financial narrative without units", "payment", "greenfield-1", model.TopicFinancial, model.ResultProject,
			""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := input(t, tt.query, tt.project)
			if tt.processor == model.TopicFinancial {
				in.Units = nil
			}
			r, name := RunProcessors(in)
			require.NotNil(t, r)
			assert.Equal(t, tt.processor, name)
			assert.Equal(t, tt.wantType, r.Type)
			if tt.prefix != "" {
				assert.True(t, strings.HasPrefix(r.Text, tt.prefix), "got %q", r.Text)
			}
		})
	}
}

func TestFinancial_PricingOverview(t *testing.T) {
	r, name := RunProcessors(input(t, "what is the price", "greenfield-1"))
	require.NotNil(t, r)
	assert.Equal(t, model.TopicFinancial, name)
	assert.Equal(t, model.ResultProject, r.Type)

	want := "**Greenfield Pricing Overview:**\n\n" +
		"• **Price Range:** ₹2.80 - 4.20 Crore\n" +
		"• **Available Units:** 1 units ready for booking\n\n" +
		"**By Unit Type:**\n" +
		"• **3 BHK Apartment:** ₹2.80 Cr (1 available)\n" +
		"• **4 BHK Duplex Penthouse:** ₹4.20 Cr (0 available)\n" +
		"\n**Additional Information:**\n" +
		"• Flexible payment plans available\n" +
		"• Home loan assistance through partner banks\n" +
		"• Maintenance charges: Approx. ₹2-3 per sq.ft/month\n" +
		"• Current offers and discounts available - speak with sales team\n"
	assert.Equal(t, want, r.Text)
}

func TestFinancial_NarrativeWhenNoUnits(t *testing.T) {
	in := input(t, "discount", "greenfield-1")
	in.Units = nil
	r := processFinancial(in)
	require.NotNil(t, r)
	assert.True(t, strings.HasPrefix(r.Text, "**Greenfield Pricing (Call-Ready Summary):**\n\n• **3 BHK:** Starting ₹1.5 Crore"))

	in = input(t, "discount", "edge-4")
	in.Units = nil
	r = processFinancial(in)
	require.NotNil(t, r)
	assert.True(t, strings.HasPrefix(r.Text, "**EDGE Pricing Information:**"))
}

func TestFinancial_BudgetRoundTrip(t *testing.T) {
	tests := []struct {
		query string
		limit int64
		want  []string
	}{
		{"under 2 crore", 2 * Crore, []string{"unit-4", "unit-5"}},
		{"anything under 3.5 cr", 35 * Crore / 10, []string{"unit-1", "unit-4", "unit-5"}},
		{"under 10 crore", 10 * Crore, []string{"unit-1", "unit-2", "unit-3", "unit-4", "unit-5", "unit-6", "unit-7", "unit-8"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r, name := RunProcessors(input(t, tt.query, ""))
			require.NotNil(t, r)
			assert.Equal(t, model.TopicFinancial, name)
			assert.Equal(t, model.ResultUnit, r.Type)
			assert.Equal(t, tt.want, relatedIDs(r))
			for _, u := range r.Units() {
				assert.Less(t, u.Price, tt.limit)
			}
		})
	}

	r, _ := RunProcessors(input(t, "under 2 crore", ""))
	assert.True(t, strings.HasPrefix(r.Text, "**Properties Under ₹2 Crore:**\n\nFound 2 units in our portfolio\n\n"))
	assert.Contains(t, r.Text, "• **Office Space:** 1 units (1 available)\n")
}

func TestFinancial_BudgetWithoutNumberDeclines(t *testing.T) {
	assert.Nil(t, processFinancial(input(t, "under a crore", "")))
}

func TestBedroom_ScopedCounts(t *testing.T) {
	tests := []struct {
		n       int
		project string
		want    []string
	}{
		{1, "", nil},
		{2, "", []string{"unit-5"}},
		{3, "", []string{"unit-1", "unit-6"}},
		{4, "", []string{"unit-2", "unit-7", "unit-8"}},
		{5, "", nil},
		{4, "edge-4", []string{"unit-7", "unit-8"}},
		{2, "greenfield-1", nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d bhk in %q", tt.n, tt.project), func(t *testing.T) {
			r := processBedroom(input(t, fmt.Sprintf("%d BHK", tt.n), tt.project))
			require.NotNil(t, r)
			if tt.want == nil {
				assert.Equal(t, model.ResultGeneral, r.Type)
				assert.Contains(t, r.Text, fmt.Sprintf("I couldn't find any %d BHK properties", tt.n))
				return
			}
			assert.Equal(t, model.ResultUnit, r.Type)
			assert.Equal(t, tt.want, relatedIDs(r))
		})
	}

	assert.Nil(t, processBedroom(input(t, "bhk options", "")))
	r := processBedroom(input(t, "looking for a 3bhk", ""))
	require.NotNil(t, r)
	assert.Equal(t, []string{"unit-1", "unit-6"}, relatedIDs(r))
}

func TestFeatureAndAvailability(t *testing.T) {
	r := processFeature(input(t, "smart home please", ""))
	require.NotNil(t, r)
	assert.Equal(t, "I found 2 properties with smart home in our portfolio.", r.Text)
	assert.Equal(t, []string{"unit-2", "unit-7"}, relatedIDs(r))

	r = processFeature(input(t, "sea view", "greenfield-1"))
	require.NotNil(t, r)
	assert.Equal(t, model.ResultGeneral, r.Type)
	assert.Equal(t, "I couldn't find any properties with sea view in Greenfield.", r.Text)

	assert.Nil(t, processFeature(input(t, "hello", "")))

	r = processAvailability(input(t, "what is available", ""))
	require.NotNil(t, r)
	assert.Equal(t, "There are 5 available units in our portfolio that are ready for booking.", r.Text)

	r = processAvailability(input(t, "ready to move", "skyview-3"))
	require.NotNil(t, r)
	assert.Equal(t, []string{"unit-5"}, relatedIDs(r))
}

func TestAmenities_DigestVariants(t *testing.T) {
	r := processAmenities(input(t, "amenities", "edge-4"))
	require.NotNil(t, r)
	assert.Equal(t, "EDGE offers premium lifestyle amenities including: Swimming Pool, Rooftop Terrace, Landscaped Gardens.", r.Text)

	r = processAmenities(input(t, "facilities", "splus-2"))
	require.NotNil(t, r)
	assert.Equal(t, "S Plus offers various amenities designed for business and convenience including: "+
		"Business facilities (9 High-Speed Elevators, Owner-Exclusive Lifts, Three-Level Basement Parking), "+
		"and Convenience features (24/7 Security, Power Backup, Fire Safety Systems, Central Air Conditioning, High-Speed Internet Ready).",
		r.Text)

	r = processAmenities(input(t, "Does Greenfield have a gym?", "greenfield-1"))
	require.NotNil(t, r)
	assert.True(t, strings.HasSuffix(r.Text, "\n\nMatching amenities: Fully equipped gymnasium"), r.Text)
}

func TestAmenities_FallbacksWithoutDigest(t *testing.T) {
	p := &model.Project{ID: "x", Name: "Plain", Features: model.JSONArray{"Lift", "Garden"}}
	in := &Input{Query: "amenities", Project: p}
	r := processAmenities(in)
	require.NotNil(t, r)
	assert.Equal(t, "Plain offers various features including: Lift, Garden.", r.Text)

	in.Project = &model.Project{ID: "y", Name: "Bare"}
	r = processAmenities(in)
	require.NotNil(t, r)
	assert.Equal(t, "Please contact our sales team for detailed information about the amenities offered at Bare.", r.Text)
}

func TestLocation_GenericWithTransport(t *testing.T) {
	p := &model.Project{
		ID:       "z",
		Name:     "Harbour",
		Location: "Dock Road",
		TransportConnections: &model.TransportConnections{
			Metro:     []string{"Dock Station"},
			Distances: map[string]string{"Airport": "20 mins", "CBD": "10 mins"},
		},
	}
	r := locationTopic.process(&Input{Query: "commute", Project: p})
	require.NotNil(t, r)
	assert.Equal(t, "Harbour is located in Dock Road, offering convenience and accessibility to key areas of the city. "+
		"Metro: Dock Station. Travel times: Airport (20 mins), CBD (10 mins).", r.Text)
}

func TestPenthouse_NoneAnywhere(t *testing.T) {
	in := &Input{Query: "duplex", Units: []model.Unit{{ID: "u", Type: "2 BHK"}}}
	r := processPenthouse(in)
	require.NotNil(t, r)
	assert.Equal(t, model.ResultGeneral, r.Type)
	assert.Equal(t, "I couldn't find any penthouses in our current portfolio.", r.Text)
}

func TestCommercial_NoCommercialProjects(t *testing.T) {
	in := &Input{Query: "retail", Projects: []model.Project{{ID: "a", Name: "A"}}}
	assert.Nil(t, processCommercial(in))
}

func TestProcessors_Idempotent(t *testing.T) {
	queries := []string{"3 BHK", "penthouse", "price", "under 2 crore", "amenities", "available"}
	for _, q := range queries {
		in := input(t, q, "greenfield-1")
		first, _ := RunProcessors(in)
		second, _ := RunProcessors(in)
		require.NotNil(t, first, q)
		assert.Equal(t, first.Text, second.Text, q)
		assert.Equal(t, relatedIDs(first), relatedIDs(second), q)
	}
}
