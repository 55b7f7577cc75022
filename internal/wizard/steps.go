package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"emiteNota/internal/browser"
	"emiteNota/internal/locator"
	"emiteNota/internal/record"
	"emiteNota/internal/resolver"

	"go.uber.org/zap"
)

var monthLabels = [...]string{
	"Selecione", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// fillPayer: шаг Tomador
func (m *Machine) fillPayer(ctx context.Context, rec record.SourceRecord, res *Result) error {
	if _, ok := m.res.WaitFor(ctx, locator.FieldTaxpayerID, m.cfg.StepTimeout); !ok {
		return required(StepPayer, locator.FieldTaxpayerID)
	}
	if !m.res.Fill(ctx, locator.FieldTaxpayerID, rec.TaxpayerDigits()) {
		return required(StepPayer, locator.FieldTaxpayerID)
	}
	if !m.res.Fill(ctx, locator.FieldPayerName, rec.PayerName) {
		return required(StepPayer, locator.FieldPayerName)
	}

	if err := m.fillRegistration(ctx, rec, res); err != nil {
		return err
	}

	optional := []struct {
		field string
		value string
	}{
		{locator.FieldPhone, rec.Phone},
		{locator.FieldEmail, rec.Email},
		{locator.FieldAddressNumber, rec.Number},
		{locator.FieldComplement, rec.Complement},
		{locator.FieldDistrict, rec.District},
	}
	for _, f := range optional {
		if f.value == "" {
			continue
		}
		m.res.Fill(ctx, f.field, f.value)
	}

	modal, err := m.advance(ctx)
	if modal {
		res.Modals++
	}
	return err
}

// fillRegistration подбирает inscrição по CEP; при неудаче пишет CEP в обычное поле.
// Ни один исход, кроме отмены, запись не прерывает.
func (m *Machine) fillRegistration(ctx context.Context, rec record.SourceRecord, res *Result) error {
	cep, ok := resolver.PostalCodeFor(rec)
	if !ok {
		m.log.Warn("CEP не найден ни в записи, ни в адресе")
		res.warn("CEP не найден")
		return nil
	}

	err := m.res.ResolveRegistration(ctx, cep)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, resolver.ErrNoDependentControl):
		m.log.Debug("Inscrição не список, CEP пишется напрямую")
	default:
		m.log.Warn("Inscrição не подобрана по CEP", zap.String("cep", cep), zap.Error(err))
		res.warn("inscrição не подобрана по CEP %s", cep)
	}

	if !m.res.FillPostalCode(ctx, cep) {
		res.warn("CEP %s не записан", cep)
	}
	return nil
}

// fillServices: шаг Serviços. Порядок важен: ранние поля перезагружают поздние.
func (m *Machine) fillServices(ctx context.Context, rec record.SourceRecord, res *Result) error {
	now := m.cfg.Now()
	due, err := rec.Due()
	if err != nil {
		m.log.Warn("Срок оплаты не разобран, берётся текущий период", zap.Error(err))
		res.warn("competência: текущий период")
		due = now
	}

	month, expectModal := competenceMonth(due, now)
	res.ExpectModal = expectModal
	m.log.Debug("Период competência",
		zap.Int("year", due.Year()),
		zap.Int("month", month),
		zap.Bool("expect_modal", expectModal),
	)

	if !m.res.Fill(ctx, locator.FieldCompetenceYear, strconv.Itoa(due.Year())) {
		res.warn("ano de competência не заполнен")
	}
	if !m.res.SelectOption(ctx, locator.FieldCompetenceMonth, strconv.Itoa(month), monthLabels[month]) {
		res.warn("mês de competência не выбран")
	}

	offset := m.secondaryOffset(rec.ClassCode)
	if _, ok := m.res.WaitFor(ctx, locator.FieldActivity, m.cfg.StepTimeout); !ok {
		return required(StepServices, locator.FieldActivity)
	}
	if !m.res.SelectByOffset(ctx, locator.FieldActivity, offset) {
		return required(StepServices, locator.FieldActivity)
	}
	if !m.res.SelectByOffset(ctx, locator.FieldCNAE, offset) {
		res.warn("CNAE не выбран")
	}

	if !m.res.Fill(ctx, locator.FieldServiceAmount, rec.Amount) {
		res.warn("valor do serviço не заполнен на шаге Serviços")
	}

	desc := m.cfg.ServiceDescription
	if desc == "" {
		desc = rec.Description
	}
	if !m.res.Fill(ctx, locator.FieldDescription, desc) {
		res.warn("discriminação не заполнена")
	}

	modal, err := m.advance(ctx)
	if modal {
		res.Modals++
	}
	return err
}

// competenceMonth: месяц competência и ожидается ли модальное окно
// (период отличается от текущего)
func competenceMonth(due, now time.Time) (int, bool) {
	month := int(due.Month())
	if due.Year() == now.Year() && due.Month() == now.Month() {
		return int(now.Month()), false
	}
	return month, true
}

// fillValues: шаг Valores: поле значения может быть заблокировано и принимать
// только один десятичный разделитель
func (m *Machine) fillValues(ctx context.Context, rec record.SourceRecord, res *Result) error {
	if tab, ok := m.loc.Resolve(ctx, m.drv, locator.FieldValuesTab); ok && !tabActive(tab) {
		if err := tab.Click(); err != nil {
			m.log.Warn("Не удалось открыть вкладку Valores", zap.Error(err))
		}
	}

	input, ok := m.res.WaitPresent(ctx, locator.FieldServiceValue, m.cfg.StepTimeout)
	if !ok {
		return required(StepValues, locator.FieldServiceValue)
	}

	if enabled, err := input.IsEnabled(); err != nil || !enabled {
		m.log.Warn("Поле значения заблокировано, снимаем disabled")
		if err := input.Enable(); err != nil {
			return required(StepValues, locator.FieldServiceValue)
		}
		if enabled, err := input.IsEnabled(); err != nil || !enabled {
			return required(StepValues, locator.FieldServiceValue)
		}
	}

	if strings.TrimSpace(rec.Amount) == "" {
		return required(StepValues, locator.FieldServiceValue)
	}

	for _, v := range amountFormats(rec.Amount) {
		if err := input.SetValue(v); err != nil {
			m.log.Debug("Ошибка записи значения", zap.String("value", v), zap.Error(err))
			continue
		}
		got, err := input.Value()
		if err != nil {
			continue
		}
		m.log.Debug("Значение после записи", zap.String("sent", v), zap.String("field", got))
		if nonZero(got) {
			return nil
		}
	}

	return required(StepValues, locator.FieldServiceValue)
}

// amountFormats: как есть, с запятой, с точкой (без повторов)
func amountFormats(v string) []string {
	v = strings.TrimSpace(v)
	out := []string{v}
	for _, alt := range []string{strings.ReplaceAll(v, ".", ","), strings.ReplaceAll(v, ",", ".")} {
		dup := false
		for _, o := range out {
			if o == alt {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, alt)
		}
	}
	return out
}

func nonZero(v string) bool {
	return strings.ContainsAny(v, "123456789")
}

func tabActive(tab browser.Element) bool {
	if expanded, err := tab.Attribute("aria-expanded"); err == nil && expanded == "true" {
		return true
	}
	class, err := tab.Attribute("class")
	if err != nil {
		return false
	}
	for _, c := range strings.Fields(class) {
		if c == "active" {
			return true
		}
	}
	return false
}
