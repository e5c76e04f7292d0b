// Package timezone maps Telegram language tags to IANA zones.
package timezone

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// UTC is returned whenever a locale cannot be mapped.
const UTC = "UTC"

var localeZones = map[string]string{
	"en-US": "America/New_York",
	"en-GB": "Europe/London",
	"en-AU": "Australia/Sydney",
	"en-CA": "America/Toronto",
	"en-NZ": "Pacific/Auckland",
	"en-IN": "Asia/Kolkata",
	"de-DE": "Europe/Berlin",
	"fr-FR": "Europe/Paris",
	"es-ES": "Europe/Madrid",
	"it-IT": "Europe/Rome",
	"pt-BR": "America/Sao_Paulo",
	"ja-JP": "Asia/Tokyo",
	"ko-KR": "Asia/Seoul",
	"zh-CN": "Asia/Shanghai",
	"zh-TW": "Asia/Taipei",
	"ru-RU": "Europe/Moscow",
	"pl-PL": "Europe/Warsaw",
	"nl-NL": "Europe/Amsterdam",
	"sv-SE": "Europe/Stockholm",
	"no-NO": "Europe/Oslo",
	"da-DK": "Europe/Copenhagen",
	"fi-FI": "Europe/Helsinki",
	"tr-TR": "Europe/Istanbul",
	"ar-SA": "Asia/Riyadh",
	"hi-IN": "Asia/Kolkata",
	"th-TH": "Asia/Bangkok",
	"vi-VN": "Asia/Ho_Chi_Minh",
	"id-ID": "Asia/Jakarta",
	"ms-MY": "Asia/Kuala_Lumpur",
	"tl-PH": "Asia/Manila",
	"uk-UA": "Europe/Kyiv",
	"cs-CZ": "Europe/Prague",
	"hu-HU": "Europe/Budapest",
	"ro-RO": "Europe/Bucharest",
	"bg-BG": "Europe/Sofia",
	"hr-HR": "Europe/Zagreb",
	"sk-SK": "Europe/Bratislava",
	"sl-SI": "Europe/Ljubljana",
	"et-EE": "Europe/Tallinn",
	"lv-LV": "Europe/Riga",
	"lt-LT": "Europe/Vilnius",
	"el-GR": "Europe/Athens",
	"he-IL": "Asia/Jerusalem",
	"fa-IR": "Asia/Tehran",
	"ur-PK": "Asia/Karachi",
	"bn-BD": "Asia/Dhaka",
	"si-LK": "Asia/Colombo",
	"ne-NP": "Asia/Kathmandu",
	"my-MM": "Asia/Yangon",
	"km-KH": "Asia/Phnom_Penh",
	"lo-LA": "Asia/Vientiane",
	"ka-GE": "Asia/Tbilisi",
	"hy-AM": "Asia/Yerevan",
	"az-AZ": "Asia/Baku",
	"kk-KZ": "Asia/Almaty",
	"ky-KG": "Asia/Bishkek",
	"uz-UZ": "Asia/Tashkent",
	"tg-TJ": "Asia/Dushanbe",
	"mn-MN": "Asia/Ulaanbaatar",
	"bo-CN": "Asia/Urumqi",
	"dz-BT": "Asia/Thimphu",
	"ml-IN": "Asia/Kolkata",
	"ta-IN": "Asia/Kolkata",
	"te-IN": "Asia/Kolkata",
	"kn-IN": "Asia/Kolkata",
	"gu-IN": "Asia/Kolkata",
	"pa-IN": "Asia/Kolkata",
	"mr-IN": "Asia/Kolkata",
	"bn-IN": "Asia/Kolkata",
	"ur-IN": "Asia/Kolkata",
}

var regionZones = map[string]string{
	"US": "America/New_York",
	"GB": "Europe/London",
	"CA": "America/Toronto",
	"AU": "Australia/Sydney",
	"NZ": "Pacific/Auckland",
	"DE": "Europe/Berlin",
	"FR": "Europe/Paris",
	"ES": "Europe/Madrid",
	"IT": "Europe/Rome",
	"BR": "America/Sao_Paulo",
	"MX": "America/Mexico_City",
	"AR": "America/Argentina/Buenos_Aires",
	"CL": "America/Santiago",
	"CO": "America/Bogota",
	"PE": "America/Lima",
	"VE": "America/Caracas",
	"JP": "Asia/Tokyo",
	"KR": "Asia/Seoul",
	"CN": "Asia/Shanghai",
	"TW": "Asia/Taipei",
	"HK": "Asia/Hong_Kong",
	"SG": "Asia/Singapore",
	"RU": "Europe/Moscow",
	"IN": "Asia/Kolkata",
	"TH": "Asia/Bangkok",
	"ID": "Asia/Jakarta",
	"MY": "Asia/Kuala_Lumpur",
	"PH": "Asia/Manila",
	"ZA": "Africa/Johannesburg",
	"EG": "Africa/Cairo",
	"NG": "Africa/Lagos",
	"KE": "Africa/Nairobi",
	"MA": "Africa/Casablanca",
	"TN": "Africa/Tunis",
	"DZ": "Africa/Algiers",
	"ET": "Africa/Addis_Ababa",
	"GH": "Africa/Accra",
	"UG": "Africa/Kampala",
	"TZ": "Africa/Dar_es_Salaam",
	"ZW": "Africa/Harare",
	"ZM": "Africa/Lusaka",
	"SN": "Africa/Dakar",
	"CI": "Africa/Abidjan",
	"CM": "Africa/Douala",
	"AO": "Africa/Luanda",
	"CD": "Africa/Kinshasa",
	"RW": "Africa/Kigali",
	"MG": "Indian/Antananarivo",
	"MU": "Indian/Mauritius",
	"MV": "Indian/Maldives",
}

var displayNames = map[string]string{
	UTC:                   "UTC",
	"America/New_York":    "Eastern Time",
	"America/Chicago":     "Central Time",
	"America/Denver":      "Mountain Time",
	"America/Los_Angeles": "Pacific Time",
	"Europe/London":       "GMT/BST",
	"Europe/Paris":        "CET/CEST",
	"Europe/Berlin":       "CET/CEST",
	"Asia/Tokyo":          "JST",
	"Asia/Shanghai":       "CST",
	"Asia/Kolkata":        "IST",
	"Australia/Sydney":    "AEST/AEDT",
	"Pacific/Auckland":    "NZST/NZDT",
}

// Resolve maps a locale tag such as "en-US" or "pt_br" to a zone identifier.
// It never fails: unknown tags resolve by region subtag, then to UTC.
func Resolve(locale string) string {
	lang, region := split(locale)
	if lang == "" {
		return UTC
	}
	if region != "" {
		if zone, ok := localeZones[lang+"-"+region]; ok {
			return zone
		}
		if zone, ok := regionZones[region]; ok {
			return zone
		}
	}
	return UTC
}

// Location loads zone, falling back to UTC for anything the tz database rejects.
func Location(zone string) *time.Location {
	if zone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DisplayName returns a short human label for zone.
func DisplayName(zone string) string {
	if name, ok := displayNames[zone]; ok {
		return name
	}
	return zone
}

func split(locale string) (lang, region string) {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return "", ""
	}
	parts := strings.Split(locale, "-")
	lang = strings.ToLower(parts[0])
	// the region is the last two-letter subtag, skipping scripts like "Hant"
	for i := len(parts) - 1; i > 0; i-- {
		if len(parts[i]) == 2 {
			region = strings.ToUpper(parts[i])
			break
		}
	}
	return lang, region
}
