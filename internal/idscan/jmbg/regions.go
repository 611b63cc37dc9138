package jmbg

// UnknownRegion is reported for region codes missing from the table
const UnknownRegion = "Unknown region"

// regions maps the two-digit registration code to the issuing area.
// 01-09 are assigned to foreign citizens registered in each republic.
var regions = map[string]string{
	"01": "Foreigners in Bosnia and Herzegovina",
	"02": "Foreigners in Montenegro",
	"03": "Foreigners in Croatia",
	"04": "Foreigners in North Macedonia",
	"05": "Foreigners in Slovenia",
	"07": "Foreigners in Serbia",
	"08": "Foreigners in Vojvodina",
	"09": "Foreigners in Kosovo",

	"10": "Banja Luka",
	"11": "Bihać",
	"12": "Doboj",
	"13": "Goražde",
	"14": "Istočno Sarajevo",
	"15": "Livno",
	"16": "Mostar",
	"17": "Sarajevo",
	"18": "Trebinje",
	"19": "Tuzla",

	"21": "Podgorica",
	"22": "Bar, Ulcinj",
	"23": "Budva, Kotor, Tivat",
	"24": "Herceg Novi",
	"25": "Cetinje",
	"26": "Nikšić",
	"27": "Berane, Rožaje, Plav, Andrijevica",
	"28": "Bijelo Polje, Mojkovac",
	"29": "Pljevlja, Žabljak",

	"30": "Osijek, Slavonija",
	"31": "Bjelovar, Virovitica, Koprivnica",
	"32": "Varaždin, Međimurje",
	"33": "Zagreb",
	"34": "Karlovac",
	"35": "Gospić, Lika",
	"36": "Rijeka, Pula, Istra",
	"37": "Sisak, Banovina",
	"38": "Split, Zadar, Dubrovnik",
	"39": "Croatia, other",

	"41": "Bitola",
	"42": "Kumanovo",
	"43": "Ohrid",
	"44": "Prilep",
	"45": "Skopje",
	"46": "Strumica",
	"47": "Tetovo",
	"48": "Veles",
	"49": "Štip",

	"50": "Slovenia",

	"71": "Beograd",
	"72": "Šumadija, Pomoravlje",
	"73": "Niš",
	"74": "Južna Morava",
	"75": "Zaječar",
	"76": "Podunavlje",
	"77": "Podrinje, Kolubara",
	"78": "Kraljevo",
	"79": "Užice",

	"80": "Novi Sad",
	"81": "Sombor",
	"82": "Subotica",
	"85": "Zrenjanin",
	"86": "Pančevo",
	"87": "Kikinda",
	"88": "Ruma",
	"89": "Sremska Mitrovica",

	"91": "Priština",
	"92": "Kosovska Mitrovica",
	"93": "Peć",
	"94": "Đakovica",
	"95": "Prizren",
	"96": "Gnjilane",
}

// LookupRegion returns the area name for a two-digit region code
func LookupRegion(code string) (string, bool) {
	if name, ok := regions[code]; ok {
		return name, true
	}
	return UnknownRegion, false
}
