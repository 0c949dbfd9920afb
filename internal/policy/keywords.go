package policy

// HardBlock phrases reject a text unconditionally.
var HardBlock = []string{
	// recreational framing
	"marijuana", "marihuana", "марихуана", "марихуани",
	"recreational cannabis", "recreational use",
	"weed", "ganja", "ганжа", "ганджа",
	"stoner", "stoned", "420", "4:20",
	"dispensary", "dispensaries", "диспансер",
	"psychoactive", "психоактивн",
	// enforcement and narcotics
	"narcotic", "наркотик", "наркотичн",
	"drug enforcement", "drug trafficking", "drug bust",
	"наркозасоб", "наркоторгів",
	// consumption
	"edible cannabis", "cannabis edible",
	"high potency", "get high", "getting high",
	"legalize recreational", "recreational legalization",
	"overdose", "передозуван",
	"intoxicat", "інтоксикац",
	"hallucin", "галюцинац",
	"vape", "vaping", "вейп",
	"smoking weed", "smoke weed", "smoke marijuana",
	"joint", "joints", "джойнт",
	"bong", "bongs", "dab", "dabbing", "blunt", "blunts",
	// products and strains
	"thc oil", "thc gummies", "thc edible", "thc concentrate", "thc cartridge",
	"delta-8", "delta-9 thc product",
	"medical marijuana", "mmj", "medical cannabis dispensary",
	"cannabis strain", "indica", "sativa",
}

// SoftBlock tokens reject a text only when no allow-context phrase is present.
var SoftBlock = []string{
	"thc", "тгк",
	"drug", "drugs",
	"smoking", "smoke",
	"cannabis", "cbd",
}

// AllowContext phrases establish an industrial framing.
var AllowContext = []string{
	"industrial hemp", "industrial cannabis",
	"hemp fiber", "hemp fibre", "hemp seed", "hempseed",
	"hempcrete", "hemp concrete",
	"hemp textile", "hemp fabric",
	"hemp building", "hemp construction",
	"hemp plastic", "hemp bioplastic",
	"hemp paper", "hemp pulp",
	"hemp composite", "hemp biocomposite",
	"hemp protein", "hemp nutrition", "hemp oil nutrition", "hemp seed oil",
	"hemp insulation", "hemp battery", "hemp supercapacitor",
	"hemp crop", "hemp farming", "hemp cultivation",
	"hemp fashion", "hemp clothing", "hemp packaging",
	"cbd-free", "thc-free",
	"0.3% thc", "0.2% thc", "below thc limit", "under thc limit",
	"non-psychoactive", "farm bill",
	"fiber hemp", "fibre hemp",
	"декоративні коноплі", "технічні коноплі", "промислові коноплі",
}
