package config

import "fmt"

// Default name tables of the farm scene.
var (
	// TrimeshNames get a precise mesh collider, every other node a bounding box
	TrimeshNames = concat(
		[]string{
			"Z", "I", "P", "P_1", "Y", "F", "A", "R", "M",
			"plane", "Sign", "mailbox", "haystack", "cart", "gate", "dog_bow", "water_can",
			"Hoe", "Hoe_1", "fisshingrod", "Bucket_5", "pond_1", "pond_2",
			"Bridge-wooden-lighter", "Bridge-wooden-lighter_1", "dock_wide",
		},
		numbered("lantern", 1, 19),
		[]string{"rock", "Cliff_Rock"}, numbered("Cliff_Rock", 1, 3),
		[]string{"tree"}, numbered("tree", 1, 3),
		[]string{"beet"}, numbered("beet", 1, 9),
		[]string{"BananaTree"}, numbered("BananaTree", 1, 5),
		[]string{"apple"}, numbered("apple", 1, 15),
		[]string{"orange"}, numbered("orange", 1, 15),
		[]string{"dog", "duck"}, numbered("duck", 1, 4),
	)

	// FallableNames start fixed and topple when the vehicle hits them
	FallableNames = []string{
		"Z", "I", "P", "P_1", "Y", "F", "A", "R", "M",
		"dog_bow", "water_can", "Hoe", "Hoe_1", "mailbox", "fisshingrod", "Bucket_5",
	}

	StaticFeatureNames = concat(
		[]string{"plane", "plane_1", "sky", "rock"},
		numbered("Cliff_Rock", 1, 4),
	)

	// SkipNames are decals without any collider
	SkipNames = []string{
		"street", "path", "path001", "path002", "path003", "river", "pond",
		"grass_base_1", "pond_3", "pond_4", "pond_5", "pond_6",
	}
)

// numbered returns prefix_from..prefix_to
func numbered(prefix string, from, to int) []string {
	names := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		names = append(names, fmt.Sprintf("%s_%d", prefix, i))
	}
	return names
}

func concat(lists ...[]string) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return all
}
