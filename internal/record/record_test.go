package record

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\xef\xbb\xbfarquivo_pdf;pagina;cpf_cnpj;nome_cliente;endereco;valor;vencimento;descricao;turma\n" +
	"boletos_jan.pdf;1;123.456.789-09;MARIA DA SILVA;Rua 1, 77001-234 Palmas;850.00;10/01/2025;MENSALIDADE TURMA: G3;\n" +
	";;;;;;;;\n" +
	"boletos_jan.pdf;2;12.345.678/0001-90;JOAO \"ZE\" SOUZA;Quadra 2 77.020-000;1200,50;10/02/2025;MENSALIDADE;j1\n"

func TestLoadCSV(t *testing.T) {
	recs, err := LoadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, recs, 2, "пустые строки пропускаются")

	first := recs[0]
	assert.Equal(t, "boletos_jan.pdf", first.DocumentName)
	assert.Equal(t, 1, first.PageNumber)
	assert.Equal(t, "G3", first.ClassCode, "класс берётся из описания")
	assert.Equal(t, "12345678909", first.TaxpayerDigits())
	assert.Equal(t, Key{DocumentName: "boletos_jan.pdf", PageNumber: "1", PayerName: "MARIA DA SILVA"}, first.Key())

	second := recs[1]
	assert.Equal(t, "J1", second.ClassCode)
	assert.Equal(t, `JOAO "ZE" SOUZA`, second.PayerName)
	assert.Equal(t, "12345678000190", second.TaxpayerDigits())
}

func TestLoadCSVCommaFallback(t *testing.T) {
	recs, err := LoadCSV(strings.NewReader("arquivo_pdf,pagina,nome_cliente\na.pdf,3,ANA\n"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 3, recs[0].PageNumber)
}

func TestLoadCSVErrors(t *testing.T) {
	_, err := LoadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadCSV(strings.NewReader("arquivo_pdf;nome_cliente\na.pdf;ANA\n"))
	assert.ErrorContains(t, err, "pagina")

	_, err = LoadCSV(strings.NewReader("arquivo_pdf;pagina;nome_cliente\na.pdf;um;ANA\n"))
	assert.ErrorContains(t, err, "строка 2")
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dados.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"arquivo_pdf", "pagina", "nome_cliente", "valor", "turma"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"b.pdf", "4", "CARLOS", "99.90", "G1"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	recs, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "CARLOS", recs[0].PayerName)
	assert.Equal(t, 4, recs[0].PageNumber)
	assert.Equal(t, "G1", recs[0].ClassCode)
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("dados.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDue(t *testing.T) {
	due, err := SourceRecord{DueDate: "10/03/2025"}.Due()
	require.NoError(t, err)
	assert.Equal(t, time.March, due.Month())
	assert.Equal(t, 2025, due.Year())

	_, err = SourceRecord{DueDate: "2025-03-10"}.Due()
	assert.Error(t, err)
}
