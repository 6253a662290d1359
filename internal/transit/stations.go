package transit

import "strings"

var stationNames = map[string]string{
	"12TH": "12th St. Oakland City Center",
	"16TH": "16th St. Mission",
	"19TH": "19th St. Oakland",
	"24TH": "24th St. Mission",
	"ASHB": "Ashby",
	"BALB": "Balboa Park",
	"BAYF": "Bay Fair",
	"BERY": "Berryessa",
	"CAST": "Castro Valley",
	"CIVC": "Civic Center/UN Plaza",
	"COLM": "Colma",
	"CONC": "Concord",
	"DALY": "Daly City",
	"DBRK": "Downtown Berkeley",
	"DUBL": "Dublin/Pleasanton",
	"DELN": "El Cerrito del Norte",
	"PLZA": "El Cerrito Plaza",
	"EMBR": "Embarcadero",
	"FRMT": "Fremont",
	"FTVL": "Fruitvale",
	"GLEN": "Glen Park",
	"HAYW": "Hayward",
	"LAFY": "Lafayette",
	"LAKE": "Lake Merritt",
	"MCAR": "MacArthur",
	"MLBR": "Millbrae",
	"MONT": "Montgomery St.",
	"NBRK": "North Berkeley",
	"NCON": "North Concord/Martinez",
	"OAKL": "Oakland Airport",
	"ORIN": "Orinda",
	"PITT": "Pittsburg/Bay Point",
	"PCTR": "Pittsburg Center",
	"PHIL": "Pleasant Hill/Contra Costa Centre",
	"POWL": "Powell St.",
	"RICH": "Richmond",
	"ROCK": "Rockridge",
	"SBRN": "San Bruno",
	"SFIA": "San Francisco Airport",
	"SANL": "San Leandro",
	"SHAY": "South Hayward",
	"SSAN": "South San Francisco",
	"UCTY": "Union City",
	"WARM": "Warm Springs/South Fremont",
	"WCRK": "Walnut Creek",
	"WDUB": "West Dublin/Pleasanton",
	"WOAK": "West Oakland",
}

// StationName returns the display name for a station code.
func StationName(code string) (string, bool) {
	name, ok := stationNames[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// LineColor names the colour of a route, "white" when the route is unknown.
func LineColor(line string) string {
	switch strings.ToUpper(strings.TrimSpace(line)) {
	case "ROUTE 1", "ROUTE 2", "YELLOW":
		return "yellow"
	case "ROUTE 3", "ROUTE 4", "ORANGE":
		return "orange"
	case "ROUTE 5", "ROUTE 6", "GREEN":
		return "green"
	case "ROUTE 7", "ROUTE 8", "RED":
		return "red"
	case "ROUTE 11", "ROUTE 12", "BLUE":
		return "blue"
	case "ROUTE 19", "ROUTE 20", "BEIGE", "GREY", "GRAY":
		return "grey"
	default:
		return "white"
	}
}
