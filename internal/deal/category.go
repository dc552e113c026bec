package deal

import "strings"

// Other is returned when no keyword set matches a title.
const Other = "other"

type keywordSet struct {
	category string
	keywords []string
}

// Checked in order; a title matching two sets goes to the first one.
var categoryKeywords = []keywordSet{
	{"electronics", []string{"phone", "laptop", "tablet", "earphone", "headphone", "charger", "camera", "smartwatch", "tv"}},
	{"fashion", []string{"shirt", "dress", "shoe", "jeans", "jacket", "watch", "bag", "jewelry", "sunglass"}},
	{"home", []string{"kitchen", "furniture", "decor", "light", "bed", "sofa", "cookware"}},
	{"books", []string{"book", "novel", "kindle"}},
	{"sports", []string{"sport", "fitness", "gym", "yoga", "cycle"}},
}

// Categorize maps a deal title to a category name by keyword matching.
func Categorize(title string) string {
	lower := strings.ToLower(title)
	for _, set := range categoryKeywords {
		for _, keyword := range set.keywords {
			if strings.Contains(lower, keyword) {
				return set.category
			}
		}
	}
	return Other
}

// Slugify lowercases a category name and hyphenates spaces.
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}
