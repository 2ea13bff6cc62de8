package core

// qwertyNeighbors is the nearby-key table the planner samples from
// when it generates a nearby-key error (spec §4.1 step 4). Adapted
// from the teacher's internal/stealth/keyboard.go generateTypo map,
// generalized with digits and carried case-insensitively.
var qwertyNeighbors = map[rune][]rune{
	'a': {'s', 'q', 'w', 'z', 'x'},
	'b': {'v', 'g', 'h', 'n'},
	'c': {'x', 'd', 'f', 'v'},
	'd': {'s', 'e', 'r', 'f', 'c', 'x'},
	'e': {'w', 'r', 'd', 's'},
	'f': {'d', 'r', 't', 'g', 'v', 'c'},
	'g': {'f', 't', 'y', 'h', 'b', 'v'},
	'h': {'g', 'y', 'u', 'j', 'n', 'b'},
	'i': {'u', 'o', 'k', 'j'},
	'j': {'h', 'u', 'i', 'k', 'm', 'n'},
	'k': {'j', 'i', 'o', 'l', ',', 'm'},
	'l': {'k', 'o', 'p', ';', '.', ','},
	'm': {'n', 'j', 'k', ','},
	'n': {'b', 'h', 'j', 'm'},
	'o': {'i', 'p', 'l', 'k'},
	'p': {'o', '[', ']', 'l', ';'},
	'q': {'w', 'a'},
	'r': {'e', 't', 'f', 'd'},
	's': {'a', 'w', 'e', 'd', 'x', 'z'},
	't': {'r', 'y', 'g', 'f'},
	'u': {'y', 'i', 'j', 'h'},
	'v': {'c', 'f', 'g', 'b'},
	'w': {'q', 'e', 's', 'a'},
	'x': {'z', 's', 'd', 'c'},
	'y': {'t', 'u', 'h', 'g'},
	'z': {'a', 's', 'x'},
	'1': {'2', 'q'},
	'2': {'1', '3', 'q', 'w'},
	'3': {'2', '4', 'w', 'e'},
	'4': {'3', '5', 'e', 'r'},
	'5': {'4', '6', 'r', 't'},
	'6': {'5', '7', 't', 'y'},
	'7': {'6', '8', 'y', 'u'},
	'8': {'7', '9', 'u', 'i'},
	'9': {'8', '0', 'i', 'o'},
	'0': {'9', 'o', 'p'},
}

// NearbyKey returns a QWERTY-adjacent substitute for r, or r itself
// when no neighbor is known (e.g. whitespace or unmapped punctuation),
// per spec §4.1's "nearby-key" error kind. Case is preserved.
func NearbyKey(r rune, pick func(n int) int) rune {
	lower := r
	isUpper := r >= 'A' && r <= 'Z'
	if isUpper {
		lower = r + ('a' - 'A')
	}

	neighbors, ok := qwertyNeighbors[lower]
	if !ok || len(neighbors) == 0 {
		return r
	}

	chosen := neighbors[pick(len(neighbors))]
	if isUpper && chosen >= 'a' && chosen <= 'z' {
		return chosen - ('a' - 'A')
	}
	return chosen
}

// HasNeighbor reports whether r has a known QWERTY-adjacent substitute.
func HasNeighbor(r rune) bool {
	lower := r
	if r >= 'A' && r <= 'Z' {
		lower = r + ('a' - 'A')
	}
	neighbors, ok := qwertyNeighbors[lower]
	return ok && len(neighbors) > 0
}
