package mal

import "github.com/lysyi3m/anime-comb/app/anime"

// listResponse is the envelope shared by the search, ranking and seasonal
// endpoints.
type listResponse struct {
	Data []listEntry `json:"data"`
}

type listEntry struct {
	Node    animeNode `json:"node"`
	Ranking *struct {
		Rank int `json:"rank"`
	} `json:"ranking,omitempty"`
}

type animeNode struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	MainPicture *picture `json:"main_picture,omitempty"`
	Synopsis    string   `json:"synopsis"`
	Mean        *float64 `json:"mean"`
	MediaType   string   `json:"media_type"`
	NumEpisodes int      `json:"num_episodes"`
}

type picture struct {
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

func (e listEntry) toRecord() anime.PrimaryRecord {
	r := anime.PrimaryRecord{
		ID:          e.Node.ID,
		Title:       e.Node.Title,
		Synopsis:    e.Node.Synopsis,
		Mean:        e.Node.Mean,
		MediaType:   e.Node.MediaType,
		NumEpisodes: e.Node.NumEpisodes,
	}

	if p := e.Node.MainPicture; p != nil {
		r.ImageURL = p.Medium
		if r.ImageURL == "" {
			r.ImageURL = p.Large
		}
	}
	if e.Ranking != nil {
		r.Rank = e.Ranking.Rank
	}

	return r
}
