/*
Copyright 2020 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/ademuri/unwrapped/internal/aggregate"
	"github.com/ademuri/unwrapped/internal/analysis"
)

type Analysis struct {
	results [][]string
	summary string
}

type Analyser interface {
	GetResults(session *analysis.Session) (Analysis, error)

	GetName() string
}

func (a Analysis) String() string {
	out := new(bytes.Buffer)
	table := tablewriter.NewWriter(out)
	table.Header(a.results[0])
	for _, row := range a.results[1:] {
		if err := table.Append(row); err != nil {
			return fmt.Sprintf("Error rendering table: %v", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Sprintf("Error rendering table: %v", err)
	}
	fmt.Fprintf(out, "%s\n", a.summary)
	return out.String()
}

// TopAnalyzer ranks one table of a session.
type TopAnalyzer struct {
	Query aggregate.Query
	// K overrides the configured ranking length when positive.
	K int
}

func (t TopAnalyzer) GetName() string {
	return fmt.Sprintf("Top %s", displayName(t.Query))
}

func (t TopAnalyzer) GetResults(session *analysis.Session) (Analysis, error) {
	var result aggregate.Result
	var err error
	if t.K > 0 {
		result, err = aggregate.TopK(session.Aggregator(), t.Query, t.K)
	} else {
		result, err = session.Top(t.Query)
	}
	if err != nil {
		return Analysis{}, fmt.Errorf("%s: %w", t.GetName(), err)
	}

	var a Analysis
	a.results = [][]string{{"#", headerFor(t.Query.Kind, t.Query.Category), unitHeader(result)}}
	for i, entry := range result.Entries {
		a.results = append(a.results, []string{strconv.Itoa(i + 1), entry.Name, result.FormatValue(entry.Value)})
	}

	distinct, err := session.Aggregator().Distinct(t.Query.Category, t.Query.Kind)
	if err != nil {
		return Analysis{}, err
	}
	a.summary = fmt.Sprintf("Showing %d of %d %s", len(result.Entries), distinct, pluralFor(t.Query.Kind, t.Query.Category))
	if approx, ok := session.Aggregator().(*aggregate.Approximate); ok {
		maxErr, err := approx.MaximumError(t.Query)
		if err != nil {
			return Analysis{}, err
		}
		if t.Query.Metric == aggregate.Minutes {
			a.summary += fmt.Sprintf(" (approximate, error at most %.3f hours)", float64(maxErr)/60)
		} else {
			a.summary += fmt.Sprintf(" (approximate, error at most %d plays)", maxErr)
		}
	}
	return a, nil
}

func unitHeader(r aggregate.Result) string {
	if r.Query.Metric == aggregate.Minutes {
		return "Hours"
	}
	return "Plays"
}

func headerFor(k aggregate.Kind, c aggregate.Category) string {
	switch {
	case c == aggregate.Podcast && k == aggregate.Artist:
		return "Podcast"
	case c == aggregate.Podcast && k == aggregate.Track:
		return "Episode"
	case k == aggregate.Artist:
		return "Artist"
	case k == aggregate.Album:
		return "Album"
	}
	return "Track"
}

func pluralFor(k aggregate.Kind, c aggregate.Category) string {
	h := strings.ToLower(headerFor(k, c))
	if h == "episode" {
		return "podcast episodes"
	}
	return h + "s"
}

// displayName reads like "song artists by plays" or "podcasts by hours".
func displayName(q aggregate.Query) string {
	by := "plays"
	if q.Metric == aggregate.Minutes {
		by = "hours"
	}
	switch {
	case q.Category == aggregate.Podcast && q.Kind == aggregate.Artist:
		return "podcasts by " + by
	case q.Category == aggregate.Podcast:
		return "podcast episodes by " + by
	}
	return fmt.Sprintf("song %ss by %s", q.Kind, by)
}

// summaryAnalyzers lists every table shown by summary and email. Albums are
// only listed when the input carried album names.
func summaryAnalyzers(session *analysis.Session) ([]Analyser, error) {
	var out []Analyser
	for _, c := range aggregate.Categories {
		for _, k := range aggregate.Kinds {
			if k == aggregate.Album {
				if c == aggregate.Podcast {
					continue
				}
				n, err := session.Aggregator().Distinct(c, k)
				if err != nil {
					return nil, err
				}
				if n == 0 {
					continue
				}
			}
			for _, m := range aggregate.Metrics {
				out = append(out, TopAnalyzer{Query: aggregate.Query{Category: c, Kind: k, Metric: m}})
			}
		}
	}
	return out, nil
}
