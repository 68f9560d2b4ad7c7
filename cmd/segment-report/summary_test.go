package main

import (
	"bytes"
	"testing"

	"go-segment-report/internal/dashboard"

	"github.com/stretchr/testify/assert"
)

func TestPrintView(t *testing.T) {
	var buf bytes.Buffer
	printView(&buf, dashboard.View{
		SegmentValue:   "Aposentados e beneficiários do inss",
		SegmentRows:    3,
		IncomeCategory: "Até 1 SM",
		Tables: []dashboard.TableView{
			{
				Title:  "Taxa de Utilização de Produtos e Serviços",
				Header: []string{"Produto/Serviço", "Taxa de Utilização"},
				Rows:   [][]string{{"PROD_POUPANCA", "50.00%"}, {"PROD_FUNDOS", "N/A"}},
			},
			{
				Title:           "Recomendações para o Cliente",
				Recommendations: []string{"Fornecer orientação sobre gestão de riscos financeiros"},
			},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Produto/Serviço")
	assert.Contains(t, out, "PROD_POUPANCA")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "- Fornecer orientação sobre gestão de riscos financeiros")
}

func TestVersionSkipsConfig(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	assert.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "segment-report dev")
}
