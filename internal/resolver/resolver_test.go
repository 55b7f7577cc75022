package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"emiteNota/internal/browser/browsertest"
	"emiteNota/internal/locator"
	"emiteNota/internal/record"
	"emiteNota/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// Селекторы встроенной таблицы, которые используют тесты
const (
	selPayerName = "input[placeholder*='Razão social do tomador']"
	selCombo     = "select[id='comboInscricao']"
	selWidget    = "div[id='s2id_inscricao_municipal']"
	selChoice    = "a.select2-choice"
	selWidgetOpt = "ul.select2-results li.select2-result-selectable"
	selCEP       = "input[name='cep']"
	selCEPByID   = "input[id='cep']"
	selActivity  = "select[id='lista-de-servicos-prestador']"
	selMonth     = "select[id='MesDaCompetencia']"
)

func newResolver(t *testing.T, drv *browsertest.Driver) *Resolver {
	log := zaptest.NewLogger(t)
	sess := session.New(drv, locator.New(nil, log), session.Config{URL: "https://palmasto.webiss.com.br"}, log)
	return New(sess, Config{
		OptionsTimeout: 20 * time.Millisecond,
		PollInterval:   time.Millisecond,
		AutofillDelay:  time.Microsecond,
		OpenDelay:      time.Microsecond,
	}, log)
}

func TestFill(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	name := browsertest.NewElement("nome")
	drv.Put(selPayerName, name)
	r := newResolver(t, drv)

	assert.True(t, r.Fill(ctx, locator.FieldPayerName, "MARIA DA SILVA"))
	assert.Equal(t, []string{"MARIA DA SILVA"}, name.Writes)

	t.Run("пустое значение", func(t *testing.T) {
		assert.False(t, r.Fill(ctx, locator.FieldPayerName, "  "))
		assert.Len(t, name.Writes, 1)
	})

	t.Run("поле не найдено", func(t *testing.T) {
		assert.False(t, r.Fill(ctx, locator.FieldPhone, "63999990000"))
	})

	t.Run("ошибка записи", func(t *testing.T) {
		name.SetErr = errors.New("detached")
		defer func() { name.SetErr = nil }()
		assert.False(t, r.Fill(ctx, locator.FieldPayerName, "X"))
	})

	v, ok := r.Read(ctx, locator.FieldPayerName)
	require.True(t, ok)
	assert.Equal(t, "MARIA DA SILVA", v)
}

func TestSelectByOffset(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	activity := browsertest.NewElement("atividade").SetOptions("0801-fundamental", "0801-medio")
	drv.Put(selActivity, activity)
	r := newResolver(t, drv)

	require.True(t, r.SelectByOffset(ctx, locator.FieldActivity, 2))
	assert.Equal(t, "0801-medio", activity.Val)

	require.True(t, r.SelectByOffset(ctx, locator.FieldActivity, 1))
	assert.Equal(t, "0801-fundamental", activity.Val)

	assert.False(t, r.SelectByOffset(ctx, locator.FieldActivity, 5))
	assert.False(t, r.SelectByOffset(ctx, locator.FieldCNAE, 1))
}

func TestSelectOption(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	month := browsertest.NewElement("mes")
	month.SetOptions("1", "2", "3")
	month.Opts[3].Label = "Março"
	drv.Put(selMonth, month)
	r := newResolver(t, drv)

	require.True(t, r.SelectOption(ctx, locator.FieldCompetenceMonth, "2"))
	assert.Equal(t, "2", month.Val)

	require.True(t, r.SelectOption(ctx, locator.FieldCompetenceMonth, "13", "março"))
	assert.Equal(t, "3", month.Val)

	assert.False(t, r.SelectOption(ctx, locator.FieldCompetenceMonth, "Dezembro"))
}

// dependentPage собирает <select id=comboInscricao>, выбор варианта которого
// заполняет поле CEP по таблице codes
func dependentPage(codes map[string]string) (*browsertest.Driver, *browsertest.Element, *browsertest.Element) {
	drv := browsertest.NewDriver()
	cep := browsertest.NewElement("cep")
	combo := browsertest.NewElement("combo")

	values := make([]string, 0, len(codes))
	for _, v := range []string{"101", "202", "303"} {
		if _, ok := codes[v]; ok {
			values = append(values, v)
		}
	}
	combo.SetOptions(values...)
	combo.OnSet = func(v string) { cep.Val = codes[v] }

	drv.Put(selCombo, combo)
	drv.Put(selCEP, cep)
	return drv, combo, cep
}

func TestResolveRegistrationFirstMatchStops(t *testing.T) {
	ctx := context.Background()
	drv, combo, _ := dependentPage(map[string]string{
		"101": "11111-111",
		"202": "22222-222",
		"303": "33333-333",
	})
	r := newResolver(t, drv)

	require.NoError(t, r.ResolveRegistration(ctx, "22222-222"))
	assert.Equal(t, []string{"101", "202"}, combo.Writes, "третий вариант не должен проверяться")
	assert.Equal(t, "202", combo.Val)
}

func TestResolveRegistrationExhausted(t *testing.T) {
	ctx := context.Background()
	drv, combo, _ := dependentPage(map[string]string{
		"101": "11111-111",
		"202": "22222-222",
	})
	r := newResolver(t, drv)

	err := r.ResolveRegistration(ctx, "99999-999")
	assert.ErrorIs(t, err, ErrSearchExhausted)
	assert.Equal(t, []string{"101", "202"}, combo.Writes)
}

func TestResolveRegistrationReadsAnyPostalCandidate(t *testing.T) {
	ctx := context.Background()
	drv, combo, cep := dependentPage(map[string]string{"101": "11111-111"})
	// Поле по name пустое и заблокировано, CEP приходит в поле по id
	cep.Enabled = false
	byID := browsertest.NewElement("cep-id")
	drv.Put(selCEPByID, byID)
	combo.OnSet = func(string) { byID.Val = "11111-111" }
	r := newResolver(t, drv)

	require.NoError(t, r.ResolveRegistration(ctx, "11111-111"))
}

func TestResolveRegistrationDisabledAndEmpty(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	combo := browsertest.NewElement("combo").Disabled()
	combo.SetOptions()
	drv.Put(selCombo, combo)
	r := newResolver(t, drv)

	err := r.ResolveRegistration(ctx, "77001-234")
	assert.ErrorIs(t, err, ErrSearchExhausted)
	assert.Equal(t, 1, combo.Enables, "заблокированный список разблокируется")
	assert.Equal(t, 1, combo.Clicks, "одна попытка явно открыть список")
}

func TestResolveRegistrationOptionsArriveAfterOpen(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	cep := browsertest.NewElement("cep")
	combo := browsertest.NewElement("combo")
	combo.SetOptions()
	combo.OnClick = func() error {
		combo.SetOptions("101")
		return nil
	}
	combo.OnSet = func(v string) {
		if v == "101" {
			cep.Val = "77001-234"
		}
	}
	drv.Put(selCombo, combo)
	drv.Put(selCEP, cep)
	r := newResolver(t, drv)

	require.NoError(t, r.ResolveRegistration(ctx, "77001-234"))
}

func TestResolveRegistrationWidget(t *testing.T) {
	ctx := context.Background()
	drv := browsertest.NewDriver()
	cep := browsertest.NewElement("cep")
	drv.Put(selCEP, cep)

	container := browsertest.NewElement("s2id")
	choice := browsertest.NewElement("choice")
	container.Children[selChoice] = []*browsertest.Element{choice}
	drv.Put(selWidget, container)

	codes := []string{"11111-111", "22222-222", "33333-333"}
	items := make([]*browsertest.Element, len(codes))
	clicked := []int{}
	for i, code := range codes {
		i, code := i, code
		items[i] = browsertest.NewElement(code)
		items[i].Content = "Inscrição " + code
		items[i].OnClick = func() error {
			clicked = append(clicked, i)
			cep.Val = code
			drv.Remove(selWidgetOpt) // выпадающий список закрывается
			return nil
		}
	}
	choice.OnClick = func() error {
		drv.Put(selWidgetOpt, items...)
		return nil
	}
	r := newResolver(t, drv)

	require.NoError(t, r.ResolveRegistration(ctx, "22222-222"))
	assert.Equal(t, []int{0, 1}, clicked)
	assert.Equal(t, 2, choice.Clicks, "список открывается заново перед каждым вариантом")
	assert.Positive(t, drv.Overlays)
}

func TestResolveRegistrationNoControl(t *testing.T) {
	r := newResolver(t, browsertest.NewDriver())
	assert.ErrorIs(t, r.ResolveRegistration(context.Background(), "77001-234"), ErrNoDependentControl)
	assert.ErrorIs(t, r.ResolveRegistration(context.Background(), ""), ErrSearchExhausted)
}

func TestExtractPostalCode(t *testing.T) {
	tests := []struct {
		name    string
		address string
		desc    string
		want    string
		ok      bool
	}{
		{"стандарт с дефисом", "Rua 7, Centro, 77001-234, Palmas", "", "77001-234", true},
		{"стандарт без дефиса", "Quadra 104 Sul CEP 77020020", "", "77020-020", true},
		{"с точкой", "ARSE 12 CEP 77021.090", "", "77021-090", true},
		{"с пробелом", "Av. JK 77015 012", "", "77015-012", true},
		{"формат 2.3-3", "Rua B 77.020-000", "", "77020-000", true},
		{"из описания", "Rua sem cep", "MENSALIDADE CEP 77064-540", "77064-540", true},
		{"не найден", "Rua 1", "MENSALIDADE", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPostalCode(tt.address, tt.desc)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostalCodeFor(t *testing.T) {
	cep, ok := PostalCodeFor(record.SourceRecord{PostalCode: "77.001-234", Address: "Rua 1 11111-111"})
	require.True(t, ok)
	assert.Equal(t, "77001-234", cep)

	cep, ok = PostalCodeFor(record.SourceRecord{Address: "Rua 1 11111-111"})
	require.True(t, ok)
	assert.Equal(t, "11111-111", cep)

	_, ok = NormalizePostalCode("1234")
	assert.False(t, ok)
}
