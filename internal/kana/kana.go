// Package kana folds hiragana for end-of-word matching.
package kana

// voiced and small kana to their plain full-size base
var fold = map[rune]rune{
	'が': 'か', 'ぎ': 'き', 'ぐ': 'く', 'げ': 'け', 'ご': 'こ',
	'ざ': 'さ', 'じ': 'し', 'ず': 'す', 'ぜ': 'せ', 'ぞ': 'そ',
	'だ': 'た', 'ぢ': 'ち', 'づ': 'つ', 'で': 'て', 'ど': 'と',
	'ば': 'は', 'び': 'ひ', 'ぶ': 'ふ', 'べ': 'へ', 'ぼ': 'ほ',
	'ぱ': 'は', 'ぴ': 'ひ', 'ぷ': 'ふ', 'ぺ': 'へ', 'ぽ': 'ほ',
	'ゃ': 'や', 'ゅ': 'ゆ', 'ょ': 'よ',
}

// LongVowel is the prolonged sound mark.
const LongVowel = 'ー'

// Normalize maps voiced/semi-voiced kana to the unvoiced base and small
// ya/yu/yo to the full-size kana. Anything else is returned unchanged.
func Normalize(r rune) rune {
	if base, ok := fold[r]; ok {
		return base
	}
	return r
}

// Equal reports whether a and b fold to the same kana.
func Equal(a, b rune) bool {
	return Normalize(a) == Normalize(b)
}
