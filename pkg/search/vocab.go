package search

// Strategic move tags.
var StrategicTags = []string{
	"pivot", "hazard-setter", "hazard-remover", "setup-sweeper", "cleric", "scout",
	"status-spreader", "screen-support", "phazer", "trick-room-support", "redirection",
	"trapper", "priority-user",
}

// Shapes, Colors and Habitats are the biology vocabularies of the roster.
var (
	Shapes = []string{
		"ball", "squiggle", "fish", "arms", "blob", "upright", "legs", "quadruped",
		"wings", "tentacles", "heads", "humanoid", "bug-wings", "armor",
	}
	Colors = []string{
		"black", "blue", "brown", "gray", "green", "pink", "purple", "red", "white", "yellow",
	}
	Habitats = []string{
		"cave", "forest", "grassland", "mountain", "rare", "rough-terrain", "sea", "urban", "waters-edge",
	}
)

// VersionGroups are the game version groups learnsets are keyed by.
var VersionGroups = []string{
	"red-blue", "yellow", "gold-silver", "crystal", "ruby-sapphire", "emerald",
	"firered-leafgreen", "colosseum", "xd", "diamond-pearl", "platinum",
	"heartgold-soulsilver", "black-white", "black-2-white-2", "x-y",
	"omega-ruby-alpha-sapphire", "sun-moon", "ultra-sun-ultra-moon",
	"lets-go-pikachu-lets-go-eevee", "sword-shield", "the-isle-of-armor",
	"the-crown-tundra", "brilliant-diamond-and-shining-pearl", "legends-arceus",
	"scarlet-violet", "the-teal-mask", "the-indigo-disk",
}
