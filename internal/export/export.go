// Package export writes leads to CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"leadscore/internal/lead"
)

// Header is the CSV header row.
var Header = []string{
	"RUC",
	"Nombre",
	"Dominio",
	"Email Principal",
	"Emails Válidos",
	"Decision Maker",
	"Teléfono",
	"Dirección",
	"Actividad",
	"Score",
	"Tiene GMB",
	"Necesita Marketing",
}

// WriteCSV writes a header row followed by one row per lead.
func WriteCSV(w io.Writer, leads []lead.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, l := range leads {
		if err := cw.Write(row(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(l lead.Lead) []string {
	return []string{
		l.RegistrationID,
		l.Name,
		l.Domain,
		l.PrimaryEmail(),
		strings.Join(l.ValidEmails(), "; "),
		l.DecisionMaker,
		l.Phone,
		l.Address,
		l.Activity,
		strconv.Itoa(l.Score),
		presenceLabel(l.Presence),
		yesNo(l.NeedsMarketing),
	}
}

func presenceLabel(p lead.Presence) string {
	switch p {
	case lead.PresencePresent:
		return "Sí"
	case lead.PresenceAbsent:
		return "No"
	default:
		return "No verificado"
	}
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

// WriteJSON writes leads as an indented JSON array.
func WriteJSON(w io.Writer, leads []lead.Lead) error {
	if leads == nil {
		leads = []lead.Lead{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(leads)
}

// WriteFile writes leads to path, creating parent directories. A ".json"
// extension selects JSON; anything else is CSV.
func WriteFile(path string, leads []lead.Lead) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	write := WriteCSV
	if strings.EqualFold(filepath.Ext(path), ".json") {
		write = WriteJSON
	}
	if err := write(f, leads); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
