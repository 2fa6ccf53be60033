package domain

import (
	"fmt"
	"strings"
)

// FindCharacter は IDからキャラクター情報を特定します。大文字小文字の違いは許容します。
func (m CharactersMap) FindCharacter(id string) *Character {
	if m == nil || id == "" {
		return nil
	}
	if char, ok := m[id]; ok {
		res := char
		return &res
	}
	if char, ok := m[strings.ToLower(id)]; ok {
		res := char
		return &res
	}
	return nil
}

// ReferenceImagesFor は characterIDs の順に参照画像を並べて返します。重複除去は行いません。
func (m CharactersMap) ReferenceImagesFor(characterIDs []string) []string {
	var refs []string
	for _, id := range characterIDs {
		char := m.FindCharacter(id)
		if char == nil {
			continue
		}
		for _, ref := range char.ReferenceImages {
			if ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// GetCharacters はJSONバイト列からキャラクターマップをパースして返します。
// この関数はステートレスであり、キャッシュを行いません。
func GetCharacters(charactersJSON []byte) (CharactersMap, error) {
	chars, err := unmarshalCharacters(charactersJSON)
	if err != nil {
		return nil, fmt.Errorf("キャラクター情報のJSONパースに失敗しました: %w", err)
	}
	return chars, nil
}
