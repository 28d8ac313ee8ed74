package game

import "github.com/user/cronicas-do-japao/internal/types"

// CapitalRegion is reachable from every province
const CapitalRegion = "musashi"

// Provinces lists the map regions a character can originate from
var Provinces = []string{"owari", "kai", "shinano", "mino", "musashi", "echigo"}

var provinceNames = map[string]string{
	"owari":   "Owari - Planícies Centrais",
	"kai":     "Kai - Montanhas",
	"shinano": "Shinano - Terras Altas",
	"mino":    "Mino - Vales Férteis",
	"musashi": "Musashi - Capital",
	"echigo":  "Echigo - Costa Norte",
}

// ProvinceName returns the display name of a province, or the id itself
func ProvinceName(id string) string {
	if name, ok := provinceNames[id]; ok {
		return name
	}
	return id
}

var mapLocations = []types.MapLocation{
	{ID: "kiyosu", Name: "Castelo de Kiyosu", Region: "owari", X: 200, Y: 200, Description: "Sede do clã Oda, cercada por arrozais.", IsAccessible: true},
	{ID: "atsuta", Name: "Santuário de Atsuta", Region: "owari", X: 220, Y: 240, Description: "Antigo santuário que guarda a espada sagrada.", IsAccessible: true},
	{ID: "kofu", Name: "Kōfu", Region: "kai", X: 350, Y: 180, Description: "Cidade-fortaleza no coração das montanhas.", IsAccessible: true},
	{ID: "erin_ji", Name: "Templo Erin-ji", Region: "kai", X: 370, Y: 160, Description: "Templo zen protegido pelos guerreiros de Kai.", IsAccessible: true},
	{ID: "matsumoto", Name: "Matsumoto", Region: "shinano", X: 300, Y: 120, Description: "Vila de passagem entre picos nevados.", IsAccessible: true},
	{ID: "zenko_ji", Name: "Templo Zenkō-ji", Region: "shinano", X: 320, Y: 80, Description: "Destino de peregrinos de todas as províncias.", IsAccessible: true},
	{ID: "inabayama", Name: "Castelo de Inabayama", Region: "mino", X: 160, Y: 160, Description: "Fortaleza no alto de uma colina íngreme.", IsAccessible: true},
	{ID: "sekigahara", Name: "Planície de Sekigahara", Region: "mino", X: 120, Y: 180, Description: "Encruzilhada de estradas e de exércitos.", IsAccessible: false},
	{ID: "edo", Name: "Vila de Edo", Region: "musashi", X: 400, Y: 300, Description: "Vila pesqueira às margens da baía.", IsAccessible: true},
	{ID: "kawagoe", Name: "Castelo de Kawagoe", Region: "musashi", X: 380, Y: 280, Description: "Castelo que vigia as planícies de Kantō.", IsAccessible: true},
	{ID: "kasugayama", Name: "Castelo de Kasugayama", Region: "echigo", X: 330, Y: 40, Description: "Fortaleza do dragão de Echigo.", IsAccessible: true},
	{ID: "naoetsu", Name: "Porto de Naoetsu", Region: "echigo", X: 300, Y: 30, Description: "Porto varrido pelos ventos do mar do Japão.", IsAccessible: true},
}

// Locations returns every map location ordered by region
func Locations() []types.MapLocation {
	out := make([]types.MapLocation, len(mapLocations))
	copy(out, mapLocations)
	return out
}

// FindLocation looks a location up by id
func FindLocation(id string) (types.MapLocation, bool) {
	for _, loc := range mapLocations {
		if loc.ID == id {
			return loc, true
		}
	}
	return types.MapLocation{}, false
}

// CanTravel checks whether character may move to location. A character may
// only travel within its current region or to the capital.
func CanTravel(character *types.Character, location types.MapLocation) error {
	if !character.IsAlive {
		return ErrCharacterDeceased
	}
	if !location.IsAccessible {
		return ErrLocationInaccessible
	}
	if location.Region != character.Region && location.Region != CapitalRegion {
		return ErrRegionLocked
	}
	return nil
}

// MoveTo returns a copy of character placed at location
func MoveTo(character *types.Character, location types.MapLocation) *types.Character {
	updated := character.Clone()
	updated.CurrentLocation = location.Name
	updated.Region = location.Region
	return updated
}
