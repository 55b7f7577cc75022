package locator

// Логические имена полей формы WebISS
const (
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldLoginSubmit = "login_submit"
	FieldLoginError  = "login_error"

	FieldTaxpayerID         = "taxpayer_id"
	FieldPayerName          = "payer_name"
	FieldRegistrationSelect = "registration_select"
	FieldRegistrationWidget = "registration_widget"
	FieldWidgetChoice       = "widget_choice"
	FieldWidgetOption       = "widget_option"
	FieldPostalCode         = "postal_code"
	FieldAddressNumber      = "address_number"
	FieldComplement         = "complement"
	FieldDistrict           = "district"
	FieldPhone              = "phone"
	FieldEmail              = "email"

	FieldCompetenceYear  = "competence_year"
	FieldCompetenceMonth = "competence_month"
	FieldActivity        = "activity_type"
	FieldCNAE            = "cnae"
	FieldServiceAmount   = "service_amount"
	FieldDescription     = "description"

	FieldValuesTab    = "values_tab"
	FieldServiceValue = "service_value"

	FieldNext         = "next_button"
	FieldConfirmModal = "confirm_modal"
	FieldSaveDraft    = "save_draft"
	FieldEmit         = "emit"
	FieldPageLoading  = "page_loading"

	FieldMenuISSQN  = "menu_issqn"
	FieldMenuNFSe   = "menu_nfse"
	FieldMenuCreate = "menu_create"
)

// Table: LocatorStrategy для каждого логического поля; порядок кандидатов = приоритет
type Table map[string][]Candidate

// Clone возвращает независимую копию таблицы
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for field, cands := range t {
		out[field] = append([]Candidate(nil), cands...)
	}
	return out
}

// DefaultTable: варианты разметки, встречавшиеся на страницах WebISS
func DefaultTable() Table {
	return Table{
		FieldUsername: {
			CSS("input[type='text']"),
			Name("input", "username"),
			ID("input", "username"),
			Name("input", "user"),
			Name("input", "login"),
			Placeholder("input", "usuário"),
			Placeholder("input", "login"),
		},
		FieldPassword: {
			CSS("input[type='password']"),
			Name("input", "password"),
			ID("input", "password"),
			Name("input", "senha"),
		},
		FieldLoginSubmit: {
			CSS("button[type='submit']"),
			CSS("input[type='submit']"),
			TextContains("button", "Login"),
			TextContains("button", "Entrar"),
			ID("", "login-button"),
		},
		FieldLoginError: {
			CSS(".alert-danger"),
			CSS(".validation-summary-errors"),
			XPath("//*[self::div or self::span or self::p][contains(text(), 'erro') or contains(text(), 'inválido') or contains(text(), 'incorreto')]"),
		},

		FieldTaxpayerID: {
			Placeholder("input", "Número do documento do tomador"),
			Name("input", "cpf_cnpj"),
			ID("input", "cpf_cnpj"),
			Placeholder("input", "CPF"),
			Placeholder("input", "CNPJ"),
			Placeholder("input", "documento"),
		},
		FieldPayerName: {
			Placeholder("input", "Razão social do tomador"),
			Name("input", "nome"),
			ID("input", "nome"),
			Placeholder("input", "nome"),
			Placeholder("input", "Razão"),
			Placeholder("input", "social"),
		},
		FieldRegistrationSelect: {
			ID("select", "comboInscricao"),
		},
		FieldRegistrationWidget: {
			ID("div", "s2id_inscricao_municipal"),
			XPath("//div[contains(@id, 's2id') and (contains(@id, 'inscricao') or contains(@id, 'municipal'))]"),
		},
		FieldWidgetChoice: {
			CSS("a.select2-choice"),
			CSS(".select2-choice"),
		},
		FieldWidgetOption: {
			CSS("ul.select2-results li.select2-result-selectable"),
			CSS(".select2-drop-active li.select2-result-selectable"),
		},
		FieldPostalCode: {
			Name("input", "cep"),
			ID("input", "cep"),
			Placeholder("input", "CEP"),
			Placeholder("input", "cep"),
		},
		FieldAddressNumber: {
			Name("input", "numero"),
			ID("input", "numero"),
		},
		FieldComplement: {
			Name("input", "complemento"),
			ID("input", "complemento"),
		},
		FieldDistrict: {
			Name("input", "bairro"),
			ID("input", "bairro"),
		},
		FieldPhone: {
			Name("input", "telefone"),
			ID("input", "telefone"),
			Placeholder("input", "Telefone"),
		},
		FieldEmail: {
			Placeholder("input", "Email principal de contato do tomador"),
			Name("input", "email"),
			ID("input", "email"),
		},

		FieldCompetenceYear: {
			CSS("input[id*='Ano']"),
			CSS("input[name*='Ano']"),
			Placeholder("input", "Ano"),
			Placeholder("input", "ano"),
		},
		FieldCompetenceMonth: {
			ID("select", "MesDaCompetencia"),
		},
		FieldActivity: {
			ID("select", "lista-de-servicos-prestador"),
		},
		FieldCNAE: {
			ID("select", "CnaeAtividade_Id"),
		},
		FieldServiceAmount: {
			Name("input", "valorServico"),
			Placeholder("input", "Valor do serviço"),
		},
		FieldDescription: {
			ID("textarea", "discriminacao"),
			Name("textarea", "Discriminacao"),
			Placeholder("textarea", "descrição"),
		},

		FieldValuesTab: {
			CSS("a[href='#tab4-4']"),
			TextContains("a", "Valores"),
		},
		FieldServiceValue: {
			ID("input", "valores-servico"),
		},

		FieldNext: {
			ID("a", "btnProximo"),
			ID("button", "btnProximo"),
			TextContains("button", "Próximo"),
			TextContains("a", "Próximo"),
			ValueAttr("input", "Próximo"),
			CSS("[onclick*='proximo']"),
		},
		FieldConfirmModal: {
			XPath("//a[@data-handler='1' and contains(@class, 'btn-primary') and normalize-space(.)='Sim']"),
			Text("button", "Sim"),
			Text("a", "Sim"),
		},
		FieldSaveDraft: {
			CSS("a.salvar-rascunho"),
			TextContains("button", "Salvar rascunho"),
			ValueAttr("input", "Salvar rascunho"),
		},
		FieldEmit: {
			ID("button", "botao-emitir-nota-fiscal"),
			CSS("button[data-loading-message='Emitindo Nota Fiscal']"),
			XPath("//button[contains(@class, 'btn-primary') and contains(normalize-space(.), 'Emitir')]"),
			TextContains("a", "Emitir nota"),
		},
		FieldPageLoading: {
			CSS("body.page-loading"),
		},

		FieldMenuISSQN: {
			Text("span", "ISSQN"),
		},
		FieldMenuNFSe: {
			Text("span", "NFS-e"),
		},
		FieldMenuCreate: {
			Text("span", "Criar"),
			Text("a", "Criar"),
		},
	}
}
