// Package matcher picks the card to auto-play for a typed word.
package matcher

import (
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/DoyleJ11/wordchain-client/internal/kana"
	"github.com/DoyleJ11/wordchain-client/pkg/types"
)

// OpenEndedLength is the length card value that matches any longer word too.
const OpenEndedLength = 7

// TerminalChar returns the normalized character the word ends on. A trailing
// long-vowel mark is skipped once when the word has more than one character.
func TerminalChar(word string) (rune, bool) {
	word = norm.NFC.String(word)
	if word == "" {
		return 0, false
	}

	last, size := utf8.DecodeLastRuneInString(word)
	if last == kana.LongVowel && utf8.RuneCountInString(word) > 1 {
		last, _ = utf8.DecodeLastRuneInString(word[:len(word)-size])
	}
	return kana.Normalize(last), true
}

// SelectBestCard returns the lowest hand index in the first non-empty
// category bucket, walking priority in order.
func SelectBestCard(word string, hand types.Hand, priority []types.Category) (int, bool) {
	word = norm.NFC.String(word)
	end, ok := TerminalChar(word)
	if !ok {
		return -1, false
	}
	length := utf8.RuneCountInString(word)

	buckets := make(map[types.Category]int, 3)
	for i, card := range hand {
		if _, seen := buckets[card.Type]; seen {
			continue
		}
		if Matches(card, end, length) {
			buckets[card.Type] = i
		}
	}

	for _, cat := range priority {
		if idx, ok := buckets[cat]; ok {
			return idx, true
		}
	}
	return -1, false
}

// Matches reports whether card accepts a word ending on end (already
// normalized) with the given rune length.
func Matches(card types.Card, end rune, length int) bool {
	switch card.Type {
	case types.CategoryChar:
		r, size := utf8.DecodeRuneInString(norm.NFC.String(card.Value))
		return size > 0 && kana.Normalize(r) == end
	case types.CategoryRow:
		for _, r := range norm.NFC.String(card.Value) {
			if kana.Normalize(r) == end {
				return true
			}
		}
		return false
	case types.CategoryLength:
		want, err := strconv.Atoi(card.Value)
		if err != nil {
			return false
		}
		if want == OpenEndedLength {
			return length >= OpenEndedLength
		}
		return length == want
	}
	return false
}
