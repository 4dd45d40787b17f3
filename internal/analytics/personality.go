package analytics

// Trait is a listening personality.
type Trait struct {
	Name        string
	Description string
}

const (
	mainstreamPopularity = 55.0
	eclecticGenres       = 12
)

type traitKey struct {
	explorer   bool
	highEnergy bool
}

var traits = map[traitKey]Trait{
	{explorer: false, highEnergy: true}: {
		Name:        "The Hype Machine",
		Description: "You ride the biggest, loudest tracks of the moment.",
	},
	{explorer: false, highEnergy: false}: {
		Name:        "The Comfort Listener",
		Description: "Familiar favourites and easy listening keep you grounded.",
	},
	{explorer: true, highEnergy: true}: {
		Name:        "The Adventurer",
		Description: "You chase high-octane sounds well off the beaten path.",
	},
	{explorer: true, highEnergy: false}: {
		Name:        "The Curator",
		Description: "You dig for quiet gems before anyone else finds them.",
	},
}

var eclecticTrait = Trait{
	Name:        "The Eclectic",
	Description: "No single scene can hold you; your taste spans genre after genre.",
}

// Personality classifies a profile with a fixed lookup table.
// Wide genre spread wins over the energy/popularity grid.
func Personality(p *Profile) Trait {
	if p.DistinctGenres >= eclecticGenres && len(p.Genres) > 0 && p.Genres[0].Share < 0.15 {
		return eclecticTrait
	}

	key := traitKey{
		explorer:   p.AvgPopularity < mainstreamPopularity,
		highEnergy: p.Mood.Energy > 0.6,
	}
	return traits[key]
}
