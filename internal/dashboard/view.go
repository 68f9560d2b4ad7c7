package dashboard

import (
	"strings"

	"go-segment-report/internal/model"
	"go-segment-report/internal/pipeline"
	"go-segment-report/pkg/utils"
)

// TableView is one report section with every value already formatted.
type TableView struct {
	Name            string
	Title           string
	Header          []string
	Rows            [][]string
	Recommendations []string
	Note            string
}

// View is the formatted report handed to the page template and the terminal
// summary.
type View struct {
	SegmentValue     string
	SegmentRows      int
	IncomeCategory   string
	IncomeCategories []string
	GeneratedAt      string
	Tables           []TableView
}

// columnLabels are the display names of report columns.
var columnLabels = map[string]string{
	pipeline.ColumnAccounts:     "Número de Associados",
	pipeline.ColumnMeanPersonal: "Saldo Médio de Crédito Pessoal",
	pipeline.ColumnMeanScore:    "Score Médio de Principalidade",
	pipeline.ColumnMeanProducts: "Média de Produtos Utilizados",
	"RENDA_CAT":                 "Categoria de Renda",
	"DES_CENTRAL":               "Região",
	"PROD_POUPANCA":             "Uso de Poupança",
	"PROD_FUNDOS":               "Uso de Fundos",
	"PROD_PREVIDENCIA":          "Uso de Previdência",
	"DIGITAL_TRANSACIONOU_30D":  "Transações Digitais (30d)",
	"DIGITAL_ACESSOU_30D":       "Acessos Digitais (30d)",
	"POSSUI_CAD_DIGITAL":        "Cadastro Digital",
}

// sectionNotes explain each table on the page.
var sectionNotes = map[string]string{
	pipeline.SectionIncomeDistribution: "Proporção de aposentados em cada categoria de renda.",
	pipeline.SectionUsage:              "Proporção de clientes da categoria de renda selecionada que utilizam cada produto ou serviço.",
	pipeline.SectionTopRegions:         "Total de clientes aposentados em cada região e o valor médio do saldo de crédito pessoal.",
	pipeline.SectionFinancialLiteracy:  "Percentual de clientes que utilizam produtos de investimento e canais digitais, por categoria de renda.",
	pipeline.SectionPrincipality:       "Como clientes em diferentes faixas de renda tendem a utilizar múltiplos produtos, indicando o potencial de principalidade.",
	pipeline.SectionCreditUtilization:  "Uso médio de diferentes tipos de crédito por faixa de renda.",
	pipeline.SectionRegional:           "Como diferentes regiões se comparam em número de associados, principalidade e uso de crédito.",
}

func label(column string) string {
	if l, ok := columnLabels[column]; ok {
		return l
	}
	return column
}

// formatterFor picks how a column's values are displayed.
func formatterFor(column string) func(float64) string {
	switch {
	case column == pipeline.ColumnAccounts:
		return func(v float64) string { return utils.FormatNumber(v, 0) }
	case column == pipeline.ColumnMeanPersonal, strings.HasPrefix(column, "SALDO_"):
		return utils.FormatCurrency
	case column == pipeline.ColumnMeanScore, column == pipeline.ColumnMeanProducts:
		return func(v float64) string { return utils.FormatNumber(v, 2) }
	default:
		return func(v float64) string { return utils.FormatPercent(v, 2) }
	}
}

// BuildView formats a report for display. Undefined values render as N/A.
func BuildView(report *model.Report) View {
	v := View{
		SegmentValue:     report.Segment.Value,
		SegmentRows:      report.SegmentRows,
		IncomeCategory:   report.IncomeCategory,
		IncomeCategories: report.IncomeCategories,
		GeneratedAt:      report.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
	}
	for i := range report.Sections {
		v.Tables = append(v.Tables, SectionView(&report.Sections[i]))
	}
	return v
}

// SectionView formats one section.
func SectionView(sec *model.Section) TableView {
	tv := TableView{Name: sec.Name, Title: sec.Title, Note: sectionNotes[sec.Name]}
	switch {
	case sec.Grouped != nil:
		g := sec.Grouped
		tv.Header = append(tv.Header, label(g.GroupKey))
		formats := make([]func(float64) string, len(g.Columns))
		for i, c := range g.Columns {
			tv.Header = append(tv.Header, label(c))
			formats[i] = formatterFor(c)
		}
		for _, r := range g.Rows {
			row := []string{displayKey(r.Key)}
			for i, val := range r.Values {
				row = append(row, formats[i](val))
			}
			tv.Rows = append(tv.Rows, row)
		}
	case sec.Proportions != nil:
		tv.Header = []string{"Categoria de Renda", "Proporção"}
		for _, p := range sec.Proportions {
			tv.Rows = append(tv.Rows, []string{p.Category, utils.FormatPercent(p.Share, 2)})
		}
	case sec.Recommendations != nil:
		tv.Recommendations = sec.Recommendations
	default:
		tv.Header = []string{"Produto/Serviço", "Taxa de Utilização"}
		for _, m := range sec.Metrics {
			tv.Rows = append(tv.Rows, []string{m.Name, utils.FormatPercent(m.Value, 2)})
		}
	}
	return tv
}

func displayKey(key string) string {
	if key == "" {
		return "(sem valor)"
	}
	return key
}
