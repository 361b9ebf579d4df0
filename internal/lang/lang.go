// Package lang holds the user facing messages of the gateway and picks a
// translation from the caller's Accept-Language header.
package lang

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. They double as the English text.
const (
	BadPgDumpPath    = "Export error: Failed to execute pg_dump (given path in your configuration: %s). Please fix this path in your configuration."
	BadPgDumpAllPath = "Export error: Failed to execute pg_dumpall (given path in your configuration: %s). Please fix this path in your configuration."
	InvalidRequest   = "Export error: invalid request: %s"
	UnknownServer    = "Export error: unknown server %q"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.German,
	language.French,
	language.Spanish,
}

var (
	matcher  = language.NewMatcher(supported)
	messages = newCatalog()
)

type entry struct {
	key string
	msg map[language.Tag]string
}

var translations = []entry{
	{BadPgDumpPath, map[language.Tag]string{
		language.German:  "Exportfehler: pg_dump konnte nicht ausgeführt werden (konfigurierter Pfad: %s). Bitte korrigieren Sie diesen Pfad in Ihrer Konfiguration.",
		language.French:  "Erreur d'export : impossible d'exécuter pg_dump (chemin indiqué dans la configuration : %s). Veuillez corriger ce chemin dans votre configuration.",
		language.Spanish: "Error de exportación: no se pudo ejecutar pg_dump (ruta indicada en la configuración: %s). Corrija esta ruta en su configuración.",
	}},
	{BadPgDumpAllPath, map[language.Tag]string{
		language.German:  "Exportfehler: pg_dumpall konnte nicht ausgeführt werden (konfigurierter Pfad: %s). Bitte korrigieren Sie diesen Pfad in Ihrer Konfiguration.",
		language.French:  "Erreur d'export : impossible d'exécuter pg_dumpall (chemin indiqué dans la configuration : %s). Veuillez corriger ce chemin dans votre configuration.",
		language.Spanish: "Error de exportación: no se pudo ejecutar pg_dumpall (ruta indicada en la configuración: %s). Corrija esta ruta en su configuración.",
	}},
	{InvalidRequest, map[language.Tag]string{
		language.German:  "Exportfehler: ungültige Anfrage: %s",
		language.French:  "Erreur d'export : requête invalide : %s",
		language.Spanish: "Error de exportación: solicitud no válida: %s",
	}},
	{UnknownServer, map[language.Tag]string{
		language.German:  "Exportfehler: unbekannter Server %q",
		language.French:  "Erreur d'export : serveur inconnu %q",
		language.Spanish: "Error de exportación: servidor desconocido %q",
	}},
}

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range translations {
		if err := b.SetString(language.English, e.key, e.key); err != nil {
			panic(err)
		}
		for tag, msg := range e.msg {
			if err := b.SetString(tag, e.key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Match returns the best supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Printer returns a printer for the best language matching acceptLanguage.
func Printer(acceptLanguage string) *message.Printer {
	return message.NewPrinter(Match(acceptLanguage), message.Catalog(messages))
}
