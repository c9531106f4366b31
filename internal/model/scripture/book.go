package scripture

// Testament groups books into the Old and New Testament.
type Testament string

const (
	OldTestament Testament = "VT"
	NewTestament Testament = "NT"
)

// Book describes one book of the canon as exposed to the chapter reader.
type Book struct {
	Abbrev    string    `json:"abbrev"`
	Name      string    `json:"name"`
	Testament Testament `json:"testament"`
	Chapters  int       `json:"chapters"`
}

// Verse is one numbered verse of a chapter.
type Verse struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Chapter is an ordered list of verses for one book/chapter/translation.
type Chapter struct {
	Version string  `json:"version"`
	Book    Book    `json:"book"`
	Number  int     `json:"chapter"`
	Verses  []Verse `json:"verses"`
}

// Seed returns the 66-book protestant canon with ABíbliaDigital abbreviations.
func Seed() []Book {
	return []Book{
		{"gn", "Gênesis", OldTestament, 50},
		{"ex", "Êxodo", OldTestament, 40},
		{"lv", "Levítico", OldTestament, 27},
		{"nm", "Números", OldTestament, 36},
		{"dt", "Deuteronômio", OldTestament, 34},
		{"js", "Josué", OldTestament, 24},
		{"jz", "Juízes", OldTestament, 21},
		{"rt", "Rute", OldTestament, 4},
		{"1sm", "1 Samuel", OldTestament, 31},
		{"2sm", "2 Samuel", OldTestament, 24},
		{"1rs", "1 Reis", OldTestament, 22},
		{"2rs", "2 Reis", OldTestament, 25},
		{"1cr", "1 Crônicas", OldTestament, 29},
		{"2cr", "2 Crônicas", OldTestament, 36},
		{"ed", "Esdras", OldTestament, 10},
		{"ne", "Neemias", OldTestament, 13},
		{"et", "Ester", OldTestament, 10},
		{"job", "Jó", OldTestament, 42},
		{"sl", "Salmos", OldTestament, 150},
		{"pv", "Provérbios", OldTestament, 31},
		{"ec", "Eclesiastes", OldTestament, 12},
		{"ct", "Cânticos", OldTestament, 8},
		{"is", "Isaías", OldTestament, 66},
		{"jr", "Jeremias", OldTestament, 52},
		{"lm", "Lamentações", OldTestament, 5},
		{"ez", "Ezequiel", OldTestament, 48},
		{"dn", "Daniel", OldTestament, 12},
		{"os", "Oséias", OldTestament, 14},
		{"jl", "Joel", OldTestament, 3},
		{"am", "Amós", OldTestament, 9},
		{"ob", "Obadias", OldTestament, 1},
		{"jn", "Jonas", OldTestament, 4},
		{"mq", "Miquéias", OldTestament, 7},
		{"na", "Naum", OldTestament, 3},
		{"hc", "Habacuque", OldTestament, 3},
		{"sf", "Sofonias", OldTestament, 3},
		{"ag", "Ageu", OldTestament, 2},
		{"zc", "Zacarias", OldTestament, 14},
		{"ml", "Malaquias", OldTestament, 4},
		{"mt", "Mateus", NewTestament, 28},
		{"mc", "Marcos", NewTestament, 16},
		{"lc", "Lucas", NewTestament, 24},
		{"jo", "João", NewTestament, 21},
		{"atos", "Atos", NewTestament, 28},
		{"rm", "Romanos", NewTestament, 16},
		{"1co", "1 Coríntios", NewTestament, 16},
		{"2co", "2 Coríntios", NewTestament, 13},
		{"gl", "Gálatas", NewTestament, 6},
		{"ef", "Efésios", NewTestament, 6},
		{"fp", "Filipenses", NewTestament, 4},
		{"cl", "Colossenses", NewTestament, 4},
		{"1ts", "1 Tessalonicenses", NewTestament, 5},
		{"2ts", "2 Tessalonicenses", NewTestament, 3},
		{"1tm", "1 Timóteo", NewTestament, 6},
		{"2tm", "2 Timóteo", NewTestament, 4},
		{"tt", "Tito", NewTestament, 3},
		{"fm", "Filemom", NewTestament, 1},
		{"hb", "Hebreus", NewTestament, 13},
		{"tg", "Tiago", NewTestament, 5},
		{"1pe", "1 Pedro", NewTestament, 5},
		{"2pe", "2 Pedro", NewTestament, 3},
		{"1jo", "1 João", NewTestament, 5},
		{"2jo", "2 João", NewTestament, 1},
		{"3jo", "3 João", NewTestament, 1},
		{"jd", "Judas", NewTestament, 1},
		{"ap", "Apocalipse", NewTestament, 22},
	}
}
