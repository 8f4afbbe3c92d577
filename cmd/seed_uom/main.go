// seed_uom genera el script SQL que carga unidades de medida y factores de conversión de una
// empresa a partir de un catálogo CSV exportado del ERP anterior.
//
// Uso: go run ./cmd/seed_uom <company_id> [ruta/catalogo.csv] [salida.sql]
// Por defecto lee uom.csv y escribe internal/infrastructure/postgres/seeds/uom_<company_id>.sql.
//
// Formato (separador ';', líneas con # se ignoran):
//
//	unit;<id>;<code>;<type>
//	factor;<from_id>;<to_id>;<factor>
//
// Los exportes en ISO-8859-1 se detectan y se convierten a UTF-8.
package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Inventario-erp/internal/domain/entity"
	"github.com/jhoicas/Inventario-erp/internal/domain/uom"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed_uom <company_id> [catalogo.csv] [salida.sql]")
		os.Exit(2)
	}
	companyID := os.Args[1]
	csvPath := "uom.csv"
	if len(os.Args) > 2 {
		csvPath = os.Args[2]
	}
	outPath := filepath.Join("internal", "infrastructure", "postgres", "seeds", "uom_"+companyID+".sql")
	if len(os.Args) > 3 {
		outPath = os.Args[3]
	}

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}
	units, factors, err := parseCatalog(companyID, decodeLatin1(raw))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo inválido: %v\n", err)
		os.Exit(1)
	}
	// Misma validación que el motor de conversión: tipos compatibles, factores positivos, sin duplicados.
	if _, err := uom.NewTable(units, factors); err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo inválido: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Crear directorio: %v\n", err)
		os.Exit(1)
	}
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := writeSQL(out, companyID, units, factors); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d unidades, %d factores\n", outPath, len(units), len(factors))
}

// decodeLatin1 devuelve el contenido en UTF-8; si no lo es, lo trata como ISO-8859-1.
func decodeLatin1(raw []byte) io.Reader {
	if utf8.Valid(raw) {
		return bytes.NewReader(raw)
	}
	return transform.NewReader(bytes.NewReader(raw), charmap.ISO8859_1.NewDecoder())
}

func parseCatalog(companyID string, r io.Reader) ([]entity.UnitOfMeasure, []entity.ConversionFactor, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var units []entity.UnitOfMeasure
	var factors []entity.ConversionFactor
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 4 {
			return nil, nil, fmt.Errorf("línea %d: se esperaban 4 campos, hay %d", line, len(rec))
		}
		switch strings.ToLower(strings.TrimSpace(rec[0])) {
		case "unit":
			u := entity.UnitOfMeasure{
				ID:        strings.TrimSpace(rec[1]),
				CompanyID: companyID,
				Code:      strings.TrimSpace(rec[2]),
				Type:      entity.UOMType(strings.ToLower(strings.TrimSpace(rec[3]))),
			}
			if !u.Type.Valid() {
				return nil, nil, fmt.Errorf("línea %d: tipo %q no soportado", line, rec[3])
			}
			units = append(units, u)
		case "factor":
			// Exportes con coma decimal (1,5) son comunes.
			f, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
			if err != nil {
				return nil, nil, fmt.Errorf("línea %d: factor %q: %w", line, rec[3], err)
			}
			factors = append(factors, entity.ConversionFactor{
				FromUomID: strings.TrimSpace(rec[1]),
				ToUomID:   strings.TrimSpace(rec[2]),
				Factor:    f,
			})
		default:
			return nil, nil, fmt.Errorf("línea %d: registro %q desconocido", line, rec[0])
		}
	}
	return units, factors, nil
}

func writeSQL(w io.Writer, companyID string, units []entity.UnitOfMeasure, factors []entity.ConversionFactor) error {
	sort.Slice(units, func(i, j int) bool { return units[i].Code < units[j].Code })
	sort.Slice(factors, func(i, j int) bool {
		if factors[i].FromUomID != factors[j].FromUomID {
			return factors[i].FromUomID < factors[j].FromUomID
		}
		return factors[i].ToUomID < factors[j].ToUomID
	})

	var b strings.Builder
	fmt.Fprintf(&b, "-- Unidades de medida y factores de conversión de la empresa %s\n", companyID)
	b.WriteString("-- Generado por: go run ./cmd/seed_uom\n\nBEGIN;\n\n")
	for _, u := range units {
		fmt.Fprintf(&b, "INSERT INTO units_of_measure (id, company_id, code, type) VALUES ('%s', '%s', '%s', '%s') ON CONFLICT (id) DO NOTHING;\n",
			escapeSQL(u.ID), escapeSQL(companyID), escapeSQL(u.Code), escapeSQL(string(u.Type)))
	}
	b.WriteString("\n")
	for _, f := range factors {
		fmt.Fprintf(&b, "INSERT INTO uom_conversions (company_id, from_uom_id, to_uom_id, factor) VALUES ('%s', '%s', '%s', %s) ON CONFLICT (company_id, from_uom_id, to_uom_id) DO UPDATE SET factor = EXCLUDED.factor;\n",
			escapeSQL(companyID), escapeSQL(f.FromUomID), escapeSQL(f.ToUomID), f.Factor.String())
	}
	b.WriteString("\nCOMMIT;\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
