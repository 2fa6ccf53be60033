package domain

import (
	"encoding/json"
	"fmt"
	"os"
)

// Character はキャラクターライブラリに登録された人物の定義です。
type Character struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	VisualCues      []string `json:"visual_cues"`      // 外見上の特徴
	ReferenceImages []string `json:"reference_images"` // 一貫性保持のための参照画像（URL / data URI / local-image://）
}

// CharactersMap はIDをキーとしたキャラクターの検索用マップです。
type CharactersMap map[string]Character

// LoadCharacters は指定されたファイルパスからJSONを読み込み、キャラクターマップを返します。
func LoadCharacters(path string) (CharactersMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("キャラクターファイルの読み込みに失敗しました: %w", err)
	}
	return GetCharacters(data)
}

// String はキャラクターの情報を文字列で返します。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// BuildCharactersMap はスライス形式のデータを検索効率の良いマップ形式に変換します。
// JSON が配列で書かれている場合にも使います。
func BuildCharactersMap(chars []Character) CharactersMap {
	m := make(CharactersMap, len(chars))
	for _, c := range chars {
		key := c.ID
		if key == "" {
			key = c.Name
		}
		m[key] = c
	}
	return m
}

// unmarshalCharacters はオブジェクト形式と配列形式の両方を受け付けます。
func unmarshalCharacters(data []byte) (CharactersMap, error) {
	var m CharactersMap
	if err := json.Unmarshal(data, &m); err == nil {
		return m, nil
	}
	var list []Character
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return BuildCharactersMap(list), nil
}
