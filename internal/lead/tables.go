package lead

import "leadscore/internal/verify"

// SeniorityKeyword scores a local-part that contains Keyword.
type SeniorityKeyword struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Score   int    `yaml:"score" json:"score"`
}

// Industry tags a company whose name or activity contains any keyword.
type Industry struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Tables holds every lookup table used to build leads. It is loaded once at
// startup and treated as read-only afterwards.
type Tables struct {
	GenericPrefixes    []string `yaml:"generic_prefixes"`
	DecisionPrefixes   []string `yaml:"decision_prefixes"`
	DepartmentPrefixes []string `yaml:"department_prefixes"`
	MiscPrefixes       []string `yaml:"misc_prefixes"`

	// CountrySuffix is appended to domains outside the country TLD for
	// the CountryPrefixes.
	CountrySuffix   string   `yaml:"country_suffix"`
	CountryPrefixes []string `yaml:"country_prefixes"`

	// FreeMailProviders are used for company-name guesses; the first two
	// entries are used.
	FreeMailProviders []string `yaml:"free_mail_providers"`
	CountryName       string   `yaml:"country_name"`

	SeniorityKeywords []SeniorityKeyword `yaml:"seniority_keywords"`
	GenericLocalParts []string           `yaml:"generic_local_parts"`

	Industries           []Industry `yaml:"industries"`
	HighNeedIndustries   []string   `yaml:"high_need_industries"`
	RecencyPatterns      []string   `yaml:"recency_patterns"`
	DepartmentLocalParts []string   `yaml:"department_local_parts"`

	DisposableDomains []string `yaml:"disposable_domains"`
}

// DefaultTables returns the tables tuned for Peruvian companies.
func DefaultTables() Tables {
	return Tables{
		GenericPrefixes:    []string{"info", "ventas", "contacto", "administracion", "consultas"},
		DecisionPrefixes:   []string{"gerencia", "gerente", "director", "ceo", "presidente"},
		DepartmentPrefixes: []string{"marketing", "comercial", "finanzas", "contabilidad", "rrhh"},
		MiscPrefixes:       []string{"admin", "soporte", "atencion", "recepcion"},

		CountrySuffix:   ".pe",
		CountryPrefixes: []string{"info", "ventas", "contacto", "gerencia"},

		FreeMailProviders: []string{"gmail.com", "hotmail.com"},
		CountryName:       "peru",

		SeniorityKeywords: []SeniorityKeyword{
			{"ceo", 100},
			{"gerente", 90},
			{"gerencia", 90},
			{"director", 85},
			{"presidente", 85},
			{"owner", 80},
			{"propietario", 80},
			{"administracion", 70},
			{"admin", 70},
			{"marketing", 60},
			{"comercial", 60},
			{"ventas", 50},
			{"finanzas", 50},
		},
		GenericLocalParts: []string{"info", "contacto", "consultas", "soporte", "noreply"},

		Industries: []Industry{
			{"restaurante", []string{"restaurante", "cevicheria", "polleria", "chifa", "pizzeria", "cafe"}},
			{"hotel", []string{"hotel", "hostal", "hospedaje", "lodge", "resort"}},
			{"salud", []string{"clinica", "centro medico", "consultorio", "laboratorio", "odonto"}},
			{"educacion", []string{"colegio", "instituto", "universidad", "academia", "centro educativo"}},
			{"retail", []string{"tienda", "boutique", "store", "venta", "comercial"}},
			{"servicios", []string{"consultoria", "asesoria", "agencia", "estudio"}},
			{"inmobiliaria", []string{"inmobiliaria", "constructora", "edificio", "condominio"}},
			{"tecnologia", []string{"software", "sistemas", "tecnologia", "digital", "web"}},
		},
		HighNeedIndustries:   []string{"restaurante", "hotel", "clinica", "colegio", "inmobiliaria"},
		RecencyPatterns:      []string{"2024", "2023", "new", "nuevo", "nova"},
		DepartmentLocalParts: []string{"rrhh", "finanzas", "marketing", "comercial", "sistemas"},

		DisposableDomains: append([]string(nil), verify.DefaultDisposableDomains...),
	}
}

// Merge returns t with every non-empty table of o replacing its counterpart.
func (t Tables) Merge(o Tables) Tables {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = append([]string(nil), src...)
		}
	}
	pick(&t.GenericPrefixes, o.GenericPrefixes)
	pick(&t.DecisionPrefixes, o.DecisionPrefixes)
	pick(&t.DepartmentPrefixes, o.DepartmentPrefixes)
	pick(&t.MiscPrefixes, o.MiscPrefixes)
	pick(&t.CountryPrefixes, o.CountryPrefixes)
	pick(&t.FreeMailProviders, o.FreeMailProviders)
	pick(&t.GenericLocalParts, o.GenericLocalParts)
	pick(&t.HighNeedIndustries, o.HighNeedIndustries)
	pick(&t.RecencyPatterns, o.RecencyPatterns)
	pick(&t.DepartmentLocalParts, o.DepartmentLocalParts)
	pick(&t.DisposableDomains, o.DisposableDomains)
	if o.CountrySuffix != "" {
		t.CountrySuffix = o.CountrySuffix
	}
	if o.CountryName != "" {
		t.CountryName = o.CountryName
	}
	if len(o.SeniorityKeywords) > 0 {
		t.SeniorityKeywords = append([]SeniorityKeyword(nil), o.SeniorityKeywords...)
	}
	if len(o.Industries) > 0 {
		t.Industries = append([]Industry(nil), o.Industries...)
	}
	return t
}
