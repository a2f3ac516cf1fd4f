package webui

import _ "embed"

//go:embed templates/login.tmpl
var loginTemplateHTML string

//go:embed templates/dashboard.tmpl
var dashboardTemplateHTML string

//go:embed templates/admin.tmpl
var adminTemplateHTML string

//go:embed templates/review_form.tmpl
var reviewFormTemplateHTML string
