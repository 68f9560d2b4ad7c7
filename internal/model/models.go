package model

// Source describes one input file for the report.
type Source struct {
	Name      string   `json:"name" mapstructure:"name"`
	Type      string   `json:"type" mapstructure:"type"` // csv, xlsx
	Path      string   `json:"path" mapstructure:"path"`
	Delimiter string   `json:"delimiter,omitempty" mapstructure:"delimiter"`
	Encoding  string   `json:"encoding,omitempty" mapstructure:"encoding"` // utf-8, latin1
	Sheet     string   `json:"sheet,omitempty" mapstructure:"sheet"`
	Table     string   `json:"table,omitempty" mapstructure:"table"` // relational export table name
	Required  []string `json:"required,omitempty" mapstructure:"required"`
}

// Schema declares column kinds for a source. Columns not listed are inferred
// once at load time.
type Schema struct {
	Flags       []string `json:"flags" mapstructure:"flags"`
	Numeric     []string `json:"numeric" mapstructure:"numeric"`
	Categorical []string `json:"categorical" mapstructure:"categorical"`
}

// Segment is the categorical predicate that selects the working segment.
type Segment struct {
	Column string `json:"column" mapstructure:"column"`
	Value  string `json:"value" mapstructure:"value"`
}

// ReportColumns names every column the report sections read.
type ReportColumns struct {
	Income         string   `json:"income" mapstructure:"income"`
	Region         string   `json:"region" mapstructure:"region"`
	AccountID      string   `json:"account_id" mapstructure:"account_id"`
	Score          string   `json:"score" mapstructure:"score"`
	PersonalCredit string   `json:"personal_credit" mapstructure:"personal_credit"`
	Usage          []string `json:"usage" mapstructure:"usage"`
	Literacy       []string `json:"literacy" mapstructure:"literacy"`
	Principality   []string `json:"principality" mapstructure:"principality"`
	Credit         []string `json:"credit" mapstructure:"credit"`
}

// ReportSpec is the full configuration of a report session.
type ReportSpec struct {
	Customers  Source        `json:"customers" mapstructure:"customers"`
	Operations Source        `json:"operations" mapstructure:"operations"`
	RiskBands  Source        `json:"risk_bands" mapstructure:"risk_bands"`
	Schema     Schema        `json:"schema" mapstructure:"schema"`
	Segment    Segment       `json:"segment" mapstructure:"segment"`
	Columns    ReportColumns `json:"columns" mapstructure:"columns"`
	TopRegions int           `json:"top_regions" mapstructure:"top_regions"`
}

// RequiredColumns lists every customer column the report sections depend on.
func (s ReportSpec) RequiredColumns() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	add(s.Segment.Column, s.Columns.Income, s.Columns.Region, s.Columns.AccountID, s.Columns.Score, s.Columns.PersonalCredit)
	add(s.Columns.Usage...)
	add(s.Columns.Literacy...)
	add(s.Columns.Principality...)
	add(s.Columns.Credit...)
	add(s.Customers.Required...)
	return out
}

// DefaultReportSpec returns the configuration of the retiree segment report over the
// credit case files.
func DefaultReportSpec() ReportSpec {
	return ReportSpec{
		Customers: Source{
			Name:  "customers",
			Type:  "xlsx",
			Path:  "dados_case_analista_dados_1_(1).xlsx",
			Sheet: "DADOS",
		},
		Operations: Source{
			Name:      "operations",
			Type:      "csv",
			Path:      "db_credito.operacoes_1_(1).csv",
			Delimiter: ";",
			Encoding:  "utf-8",
			Table:     "credito_operacoes",
		},
		RiskBands: Source{
			Name:      "risk_bands",
			Type:      "csv",
			Path:      "db_credito.faixas_risco_1_(1).csv",
			Delimiter: ";",
			Encoding:  "latin1",
			Table:     "faixa_risco",
		},
		Schema: Schema{
			Flags: []string{
				"PROD_CESTA_RELACIONAMENTO", "PROD_DEBITO_CONTA", "PROD_POUPANCA",
				"PROD_FUNDOS", "PROD_PREVIDENCIA", "PROD_SEGURO_RESIDENCIAL",
				"PROD_SEGURO_AUTOMOVEL", "DIGITAL_TRANSACIONOU_30D", "DIGITAL_ACESSOU_30D",
				"POSSUI_CAD_DIGITAL",
			},
			Numeric: []string{
				"SALDO_CARTOES", "SALDO_CHEQUE_ESPECIAL", "SALDO_CRÉDITO_PESSOAL",
				"SALDO_IMOBILIARIO", "SCORE_PRINCIPALIDADE",
			},
			Categorical: []string{"DESC_CBO", "RENDA_CAT", "DES_CENTRAL", "CODIGO_ASSOC"},
		},
		Segment: Segment{
			Column: "DESC_CBO",
			Value:  "Aposentados e beneficiários do inss",
		},
		Columns: ReportColumns{
			Income:         "RENDA_CAT",
			Region:         "DES_CENTRAL",
			AccountID:      "CODIGO_ASSOC",
			Score:          "SCORE_PRINCIPALIDADE",
			PersonalCredit: "SALDO_CRÉDITO_PESSOAL",
			Usage: []string{
				"PROD_CESTA_RELACIONAMENTO", "PROD_DEBITO_CONTA", "PROD_POUPANCA",
				"PROD_FUNDOS", "PROD_PREVIDENCIA", "PROD_SEGURO_RESIDENCIAL",
				"PROD_SEGURO_AUTOMOVEL", "DIGITAL_TRANSACIONOU_30D", "DIGITAL_ACESSOU_30D",
				"POSSUI_CAD_DIGITAL",
			},
			Literacy: []string{
				"PROD_POUPANCA", "PROD_FUNDOS", "PROD_PREVIDENCIA",
				"DIGITAL_TRANSACIONOU_30D", "DIGITAL_ACESSOU_30D", "POSSUI_CAD_DIGITAL",
			},
			Principality: []string{
				"PROD_POUPANCA", "PROD_FUNDOS", "PROD_PREVIDENCIA",
				"PROD_SEGURO_RESIDENCIAL", "PROD_SEGURO_AUTOMOVEL",
			},
			Credit: []string{
				"SALDO_CARTOES", "SALDO_CHEQUE_ESPECIAL", "SALDO_CRÉDITO_PESSOAL", "SALDO_IMOBILIARIO",
			},
		},
		TopRegions: 5,
	}
}
