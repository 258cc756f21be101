package crime

import "strings"

// UnknownArea is the sentinel administrative-area category used when a
// location cannot be mapped to a Lagos LGA.
const UnknownArea = "Unknown"

// LGAs lists the 20 Local Government Areas of Lagos State. This is the
// canonical vocabulary for the lga feature.
var LGAs = []string{
	"Agege", "Ajeromi-Ifelodun", "Alimosho", "Amuwo-Odofin",
	"Apapa", "Badagry", "Epe", "Eti-Osa",
	"Ibeju-Lekki", "Ifako-Ijaiye", "Ikeja", "Ikorodu",
	"Kosofe", "Mushin", "Oshodi-Isolo", "Somolu",
	"Lagos Island", "Lagos Mainland", "Ojo", "Surulere",
}

// LCDAs lists the Local Council Development Areas used by the synthetic
// dataset generator alongside the LGAs.
var LCDAs = []string{
	"Agbado/Oke-Odo", "Agboyi-Ketu", "Ayobo-Ipaja", "Bariga", "Coker-Aguda",
	"Ejigbo", "Egbe-Idimu", "Eredo", "Eti-Osa East", "Iba",
	"Ifelodun", "Igando-Ikotun", "Igbogbo/Bayeku", "Ijede",
	"Ikorodu North", "Ikorodu West", "Ikosi-Isheri", "Ikoyi-Obalende",
	"Imota", "Iru-Victoria Island", "Isolo", "Itire-Ikate",
	"Lagos Island East", "Lekki", "Mosan-Okunola", "Odi-Olowo/Ojuwoye",
	"Olorunda", "Oriade", "Orile-Agege", "Oto-Awori", "Ojodu",
	"Ojokoro", "Onigbongbo", "Yaba", "Festac",
}

// lgaKeywords maps place-name keywords to their LGA. Longest keyword wins so
// "victoria island" is matched before "island".
var lgaKeywords = map[string]string{
	"ikeja":           "Ikeja",
	"agege":           "Agege",
	"ajegunle":        "Ajeromi-Ifelodun",
	"alimosho":        "Alimosho",
	"igando":          "Alimosho",
	"ipaja":           "Alimosho",
	"festac":          "Amuwo-Odofin",
	"amuwo":           "Amuwo-Odofin",
	"apapa":           "Apapa",
	"badagry":         "Badagry",
	"epe":             "Epe",
	"lekki":           "Eti-Osa",
	"ajah":            "Eti-Osa",
	"ikoyi":           "Eti-Osa",
	"victoria island": "Eti-Osa",
	"vi":              "Eti-Osa",
	"ibeju":           "Ibeju-Lekki",
	"ifako":           "Ifako-Ijaiye",
	"ojodu":           "Ifako-Ijaiye",
	"ikorodu":         "Ikorodu",
	"ketu":            "Kosofe",
	"ogudu":           "Kosofe",
	"kosofe":          "Kosofe",
	"mushin":          "Mushin",
	"oshodi":          "Oshodi-Isolo",
	"isolo":           "Oshodi-Isolo",
	"bariga":          "Somolu",
	"somolu":          "Somolu",
	"shomolu":         "Somolu",
	"idumota":         "Lagos Island",
	"lagos island":    "Lagos Island",
	"yaba":            "Lagos Mainland",
	"ebute metta":     "Lagos Mainland",
	"ojota":           "Kosofe",
	"ojo":             "Ojo",
	"surulere":        "Surulere",
}

// LGAFromLocation resolves free-text location input to a Lagos LGA using the
// keyword table. Returns UnknownArea when no keyword matches; never fails.
func LGAFromLocation(location string) string {
	text := strings.ToLower(strings.TrimSpace(location))
	if text == "" {
		return UnknownArea
	}

	best := ""
	bestLen := 0
	for keyword, lga := range lgaKeywords {
		if len(keyword) > bestLen && containsWord(text, keyword) {
			best = lga
			bestLen = len(keyword)
		}
	}
	if best == "" {
		return UnknownArea
	}
	return best
}

// containsWord reports whether keyword appears in text on word boundaries,
// so "vi" does not match inside "victoria".
func containsWord(text, keyword string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
