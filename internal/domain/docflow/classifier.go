package docflow

import (
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
)

// ErrorKind categoría estable de un fallo, independiente del vocabulario del ERP.
type ErrorKind string

const (
	KindExchangeRateMissing   ErrorKind = "ExchangeRateMissing"
	KindMandatoryFieldMissing ErrorKind = "MandatoryFieldMissing"
	KindReferenceNotFound     ErrorKind = "ReferenceNotFound"
	KindConnectivity          ErrorKind = "Connectivity"
	KindUnknown               ErrorKind = "Unknown"
	// KindValidation no sale de Classify: lo asigna el orquestador a fallos locales.
	KindValidation ErrorKind = "Validation"
)

// Classification resultado de clasificar un mensaje de error.
type Classification struct {
	Kind        ErrorKind
	Remediation string // vacío cuando no hay sugerencia conocida
	Message     string // mensaje original sin HTML
}

type errorPattern struct {
	patterns    []string
	kind        ErrorKind
	remediation string
}

// errorPatterns se recorre en orden; gana la primera coincidencia.
var errorPatterns = []errorPattern{
	{
		patterns:    []string{"exchange rate", "currency exchange", "conversion rate"},
		kind:        KindExchangeRateMissing,
		remediation: "Create a Currency Exchange record in the ERP (Accounting > Currency Exchange) for the document currency and the company's default currency, then submit again.",
	},
	{
		patterns:    []string{"mandatory field"},
		kind:        KindMandatoryFieldMissing,
		remediation: "Review the required fields of the document and the ERP defaults (accounts, warehouse, groups), fill in the missing value and submit again.",
	},
	{
		patterns:    []string{"does not exist"},
		kind:        KindReferenceNotFound,
		remediation: "Verify that the customer/supplier, company and item identifiers match existing records in the ERP.",
	},
	{
		patterns:    []string{"connection refused", "failed to fetch", "fetch failed", "no such host", "connection reset", "network is unreachable"},
		kind:        KindConnectivity,
		remediation: connectivityRemediation,
	},
}

const connectivityRemediation = "Verify that the backend and the ERP system are running and reachable, then submit again."

// Classify normaliza el mensaje crudo (sin HTML) y lo asigna a una categoría.
// Si ningún patrón coincide devuelve KindUnknown, sin remediación y con el mensaje tal cual.
func Classify(raw string) Classification {
	msg := StripHTML(raw)
	folded := cases.Fold().String(msg)
	for _, ep := range errorPatterns {
		for _, p := range ep.patterns {
			if strings.Contains(folded, p) {
				return Classification{Kind: ep.kind, Remediation: ep.remediation, Message: msg}
			}
		}
	}
	return Classification{Kind: KindUnknown, Message: msg}
}

// ClassifyError igual que Classify, pero reconoce primero errores de transporte
// (*url.Error, net.Error) como problemas de conectividad.
func ClassifyError(err error) Classification {
	if err == nil {
		return Classification{}
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return Classification{
			Kind:        KindConnectivity,
			Remediation: connectivityRemediation,
			Message:     StripHTML(err.Error()),
		}
	}
	return Classify(err.Error())
}

// markupTag reconoce una etiqueta real; un "<" suelto como en "a<b" no cuenta.
var markupTag = regexp.MustCompile(`<[a-zA-Z/!][^>]*>`)

// StripHTML devuelve solo el texto visible del mensaje, con entidades decodificadas.
// El ERP suele devolver mensajes con <b>, <br> y enlaces. Sin etiquetas el texto
// se conserva tal cual (saltos de línea incluidos), solo recortado y con entidades
// decodificadas; con etiquetas además se colapsan los espacios.
func StripHTML(s string) string {
	if !markupTag.MatchString(s) {
		return strings.TrimSpace(html.UnescapeString(s))
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseSpaces(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if tt == html.StartTagToken && isRawTextTag(name) {
				skip++
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isRawTextTag(name) && skip > 0 {
				skip--
			}
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

// blockTags separan texto; las etiquetas en línea (<b>, <a>, <strong>) no.
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "td": true, "th": true, "table": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "hr": true,
}

func isRawTextTag(name []byte) bool {
	n := string(name)
	return n == "script" || n == "style"
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
