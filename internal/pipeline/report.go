package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go-segment-report/internal/model"
)

// Report section names.
const (
	SectionUsage              = "usage"
	SectionTopRegions         = "top_regions"
	SectionFinancialLiteracy  = "financial_literacy"
	SectionPrincipality       = "principality"
	SectionCreditUtilization  = "credit_utilization"
	SectionRegional           = "regional"
	SectionIncomeDistribution = "income_distribution"
	SectionRecommendations    = "recommendations"
)

// Output column names of grouped sections.
const (
	ColumnAccounts      = "accounts"
	ColumnMeanProducts  = "mean_products"
	ColumnMeanScore     = "mean_score"
	ColumnMeanPersonal  = "mean_personal_credit"
	digitalTransactions = "DIGITAL_TRANSACIONOU_30D"
	savingsProduct      = "PROD_POUPANCA"
	fundsProduct        = "PROD_FUNDOS"
	pensionProduct      = "PROD_PREVIDENCIA"
	homeInsurance       = "PROD_SEGURO_RESIDENCIAL"
)

type sectionBuilder struct {
	title string
	// perIncome sections depend on the selected income category.
	perIncome bool
	build     func(s *Session, income string) (*model.Section, error)
}

var sectionBuilders = map[string]sectionBuilder{
	SectionUsage:              {title: "Taxa de Utilização de Produtos e Serviços", perIncome: true, build: (*Session).buildUsage},
	SectionTopRegions:         {title: "Top Regiões com Maior Número de Associados", build: (*Session).buildTopRegions},
	SectionFinancialLiteracy:  {title: "Educação Financeira", build: (*Session).buildFinancialLiteracy},
	SectionPrincipality:       {title: "Análise de Principalidade", build: (*Session).buildPrincipality},
	SectionCreditUtilization:  {title: "Análise de Utilização de Crédito", build: (*Session).buildCreditUtilization},
	SectionRegional:           {title: "Análise Regional", build: (*Session).buildRegional},
	SectionIncomeDistribution: {title: "Distribuição de Renda dos Aposentados", build: (*Session).buildIncomeDistribution},
	SectionRecommendations:    {title: "Recomendações para o Cliente", perIncome: true, build: (*Session).buildRecommendations},
}

// SectionNames lists every section in report order.
func SectionNames() []string {
	return []string{
		SectionIncomeDistribution,
		SectionUsage,
		SectionTopRegions,
		SectionFinancialLiteracy,
		SectionRecommendations,
		SectionPrincipality,
		SectionCreditUtilization,
		SectionRegional,
	}
}

// IsIncomeDependent reports whether the named section changes with the
// selected income category.
func IsIncomeDependent(name string) bool {
	return sectionBuilders[name].perIncome
}

// Section returns one report section for the given income category, served
// from the memo when it was computed before. Sections that do not depend on
// the income category ignore it.
func (s *Session) Section(ctx context.Context, name, income string) (*model.Section, error) {
	b, ok := sectionBuilders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownSection, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !b.perIncome {
		income = ""
	}

	section, hit, err := s.cache.GetOrCompute(cacheKey(s.ID, name, income), func() (*model.Section, error) {
		start := time.Now()
		sec, err := b.build(s, income)
		observeSection(name, time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		sec.Name = name
		sec.Title = b.title
		sec.IncomeCategory = income
		return sec, nil
	})
	if err != nil {
		slog.Error("❌ Section failed", "section", name, "income", income, "error", err)
		return nil, err
	}
	slog.Debug("📐 Section ready", "section", name, "income", income, "cached", hit)
	return section, nil
}

// Report computes every section for the selected income category.
func (s *Session) Report(ctx context.Context, income string) (*model.Report, error) {
	names := SectionNames()
	report := &model.Report{
		SessionID:        s.ID,
		Segment:          s.Spec.Segment,
		SegmentRows:      s.Segment.Rows(),
		IncomeCategory:   income,
		IncomeCategories: s.IncomeCategories(),
		Sections:         make([]model.Section, 0, len(names)),
		GeneratedAt:      time.Now().UTC(),
	}
	for _, name := range names {
		sec, err := s.Section(ctx, name, income)
		if err != nil {
			return nil, err
		}
		report.Sections = append(report.Sections, *sec)
	}
	return report, nil
}

// ------------------- Section Builders -------------------

func (s *Session) incomeSegment(income string) (*model.Table, error) {
	return FilterEquals(s.Segment, s.Spec.Columns.Income, income)
}

func (s *Session) buildUsage(income string) (*model.Section, error) {
	seg, err := s.incomeSegment(income)
	if err != nil {
		return nil, err
	}
	metrics, err := UsageRates(seg, s.Spec.Columns.Usage)
	if err != nil {
		return nil, err
	}
	return &model.Section{Metrics: metrics}, nil
}

func (s *Session) buildTopRegions(string) (*model.Section, error) {
	cols := s.Spec.Columns
	g, err := GroupBy(s.Segment, cols.Region, []AggSpec{
		{Column: cols.AccountID, Op: OpCount, As: ColumnAccounts},
		{Column: cols.PersonalCredit, Op: OpMean, As: ColumnMeanPersonal},
	}, GroupOptions{SortBy: ColumnAccounts, Limit: s.Spec.TopRegions})
	if err != nil {
		return nil, err
	}
	return &model.Section{Grouped: g}, nil
}

func (s *Session) buildFinancialLiteracy(string) (*model.Section, error) {
	specs := make([]AggSpec, len(s.Spec.Columns.Literacy))
	for i, c := range s.Spec.Columns.Literacy {
		specs[i] = AggSpec{Column: c, Op: OpSafeMean}
	}
	g, err := GroupBy(s.Segment, s.Spec.Columns.Income, specs, GroupOptions{})
	if err != nil {
		return nil, err
	}
	return &model.Section{Grouped: g}, nil
}

func (s *Session) buildPrincipality(string) (*model.Section, error) {
	products := s.Spec.Columns.Principality
	specs := make([]AggSpec, len(products))
	for i, c := range products {
		specs[i] = AggSpec{Column: c, Op: OpSafeMean}
	}
	means, err := GroupBy(s.Segment, s.Spec.Columns.Income, specs, GroupOptions{})
	if err != nil {
		return nil, err
	}
	g, err := RowSums(means, products, ColumnMeanProducts)
	if err != nil {
		return nil, err
	}
	return &model.Section{Grouped: g}, nil
}

func (s *Session) buildCreditUtilization(string) (*model.Section, error) {
	specs := make([]AggSpec, len(s.Spec.Columns.Credit))
	for i, c := range s.Spec.Columns.Credit {
		specs[i] = AggSpec{Column: c, Op: OpMean}
	}
	g, err := GroupBy(s.Segment, s.Spec.Columns.Income, specs, GroupOptions{})
	if err != nil {
		return nil, err
	}
	return &model.Section{Grouped: g}, nil
}

func (s *Session) buildRegional(string) (*model.Section, error) {
	cols := s.Spec.Columns
	g, err := GroupBy(s.Segment, cols.Region, []AggSpec{
		{Column: cols.AccountID, Op: OpCount, As: ColumnAccounts},
		{Column: cols.Score, Op: OpMean, As: ColumnMeanScore},
		{Column: cols.PersonalCredit, Op: OpMean, As: ColumnMeanPersonal},
	}, GroupOptions{})
	if err != nil {
		return nil, err
	}
	return &model.Section{Grouped: g}, nil
}

func (s *Session) buildIncomeDistribution(string) (*model.Section, error) {
	props, err := Distribution(s.Segment, s.Spec.Columns.Income)
	if err != nil {
		return nil, err
	}
	return &model.Section{Proportions: props}, nil
}

func (s *Session) buildRecommendations(income string) (*model.Section, error) {
	seg, err := s.incomeSegment(income)
	if err != nil {
		return nil, err
	}
	rates, err := UsageRates(seg, s.Spec.Columns.Usage)
	if err != nil {
		return nil, err
	}
	return &model.Section{Recommendations: Recommend(rates)}, nil
}

// Recommend derives the advisory list from the usage rates of one income
// category. A rule whose input is undefined does not fire.
func Recommend(rates []model.Metric) []string {
	byName := make(map[string]float64, len(rates))
	for _, m := range rates {
		byName[m.Name] = m.Value
	}
	rate := func(name string) float64 {
		if v, ok := byName[name]; ok {
			return v
		}
		return model.Undefined
	}

	var out []string
	if v := rate(digitalTransactions); !model.IsUndefined(v) && v < 0.5 {
		out = append(out, "Oferecer suporte para aumentar o engajamento digital")
	}
	if v, ok := definedSum(rate(savingsProduct), rate(fundsProduct), rate(pensionProduct)); ok && v < 1 {
		out = append(out, "Promover educação financeira focada em diversificação de investimentos")
	}
	if v := rate(homeInsurance); !model.IsUndefined(v) && v < 0.2 {
		out = append(out, "Apresentar os benefícios do seguro residencial")
	}
	out = append(out,
		"Avaliar a possibilidade de oferecer produtos de crédito consignado",
		"Fornecer orientação sobre gestão de riscos financeiros",
	)
	return out
}

// definedSum adds the values only when every one of them is defined. Unlike
// RowSums, which skips undefined parts of a principality score, a missing
// product rate here would make the diversification rule fire on a partial
// total, so the rule stays silent instead.
func definedSum(values ...float64) (float64, bool) {
	total := 0.0
	for _, v := range values {
		if model.IsUndefined(v) {
			return model.Undefined, false
		}
		total += v
	}
	return total, true
}
