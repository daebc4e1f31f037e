package inventory

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Familias de unidades convertibles entre sí.
const (
	familyVolume = "volume"
	familyWeight = "weight"
	familyCount  = "count"
)

type unitDef struct {
	family string
	factor decimal.Decimal // cantidad de la unidad base (ml, g, pcs) que representa 1 unidad
}

var units = map[string]unitDef{
	"ml":    {familyVolume, decimal.NewFromInt(1)},
	"cl":    {familyVolume, decimal.NewFromInt(10)},
	"l":     {familyVolume, decimal.NewFromInt(1000)},
	"mg":    {familyWeight, decimal.New(1, -3)},
	"g":     {familyWeight, decimal.NewFromInt(1)},
	"kg":    {familyWeight, decimal.NewFromInt(1000)},
	"pcs":   {familyCount, decimal.NewFromInt(1)},
	"dozen": {familyCount, decimal.NewFromInt(12)},
}

var unitAliases = map[string]string{
	"millilitre": "ml", "milliliter": "ml", "mililitro": "ml",
	"centilitre": "cl", "centiliter": "cl",
	"lt": "l", "litre": "l", "liter": "l", "litro": "l",
	"milligram": "mg", "miligramo": "mg",
	"gr": "g", "gram": "g", "gramo": "g",
	"kilo": "kg", "kilogram": "kg", "kilogramo": "kg",
	"pc": "pcs", "piece": "pcs", "pieces": "pcs", "unit": "pcs", "units": "pcs", "unidad": "pcs", "und": "pcs",
	"dz": "dozen", "docena": "dozen",
}

// NormalizeUnit devuelve el nombre canónico de una unidad ("KG", " Kilo " → "kg").
// Unidades desconocidas se devuelven plegadas pero sin traducir.
func NormalizeUnit(u string) string {
	key := cases.Fold().String(norm.NFKC.String(strings.TrimSpace(u)))
	if canonical, ok := unitAliases[key]; ok {
		return canonical
	}
	return key
}

// Convert convierte qty de la unidad from a la unidad to. Es la identidad cuando las
// unidades coinciden, son de familias distintas o alguna es desconocida.
func Convert(qty decimal.Decimal, from, to string) decimal.Decimal {
	f, t := NormalizeUnit(from), NormalizeUnit(to)
	if f == t {
		return qty
	}
	fd, ok1 := units[f]
	td, ok2 := units[t]
	if !ok1 || !ok2 || fd.family != td.family {
		return qty
	}
	return qty.Mul(fd.factor).Div(td.factor)
}

// Compatible indica si existe conversión real entre dos unidades.
func Compatible(from, to string) bool {
	f, t := NormalizeUnit(from), NormalizeUnit(to)
	if f == t {
		return true
	}
	fd, ok1 := units[f]
	td, ok2 := units[t]
	return ok1 && ok2 && fd.family == td.family
}

// NameKey clave de unicidad de nombres por local: sin acentos, plegada y con espacios
// colapsados ("Café  Molido" y "cafe molido" colisionan).
func NameKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
