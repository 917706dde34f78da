package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ironsweet/gosearch/core/codec/compressing"
	"github.com/ironsweet/gosearch/core/geo"
	"github.com/ironsweet/gosearch/core/index"
	"github.com/ironsweet/gosearch/core/store"
)

var places = []struct {
	key      string
	lon, lat string
	offsets  []uint32
}{
	{"place:palermo", "13.361389", "38.115556", []uint32{0, 12}},
	{"place:catania", "15.087269", "37.502669", []uint32{3}},
	{"place:paris", "2.3522", "48.8566", []uint32{1, 5, 9}},
}

func main() {
	path := "testdata/places"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	log.Print("Opening FSDirectory...")
	d, err := store.OpenFSDirectory(path)
	if err != nil {
		panic(err)
	}
	defer d.Close()

	ctx := context.Background()
	conf := index.NewIndexConfig().SetCompression(compressing.COMPRESSION_MODE_ZSTD)
	docs := index.NewDocTable()
	idx := index.NewInvertedIndex(conf)
	points := geo.NewMemoryGeoStore()
	defer points.Close()
	gi := geo.NewGeoIndex(points, geo.NewGeoConfig(), "places", "location")

	log.Print("Indexing...")
	for _, p := range places {
		id, err := docs.Put(p.key, 1, 0, nil)
		if err != nil {
			panic(err)
		}
		if _, err = idx.WriteEntry(&index.Posting{DocId: id, Freq: uint32(len(p.offsets)), Offsets: p.offsets}); err != nil {
			panic(err)
		}
		if err = gi.AddStrings(ctx, id, p.lon, p.lat); err != nil {
			panic(err)
		}
	}
	if err = idx.Save(d, "city.idx"); err != nil {
		panic(err)
	}
	if err = docs.Save(d, "docs.tbl"); err != nil {
		panic(err)
	}
	idx.Release()

	log.Print("Reopening...")
	idx, err = index.OpenInvertedIndex(d, "city.idx", index.NewIndexConfig())
	if err != nil {
		panic(err)
	}
	defer idx.Release()
	if docs, err = index.OpenDocTable(d, "docs.tbl"); err != nil {
		panic(err)
	}

	log.Print("Searching...")
	f, err := geo.ParseGeoFilter([]string{"location", "15", "37", "200", "km"})
	if err != nil {
		panic(err)
	}
	hits, err := gi.Range(ctx, f)
	if err != nil {
		panic(err)
	}
	log.Println("Hits:", len(hits))
	r := idx.NewReader(true)
	for _, id := range hits {
		p, err := r.SkipTo(id)
		if err != nil || p.DocId != id {
			panic(fmt.Sprintf("doc %v has no posting: %v", id, err))
		}
		log.Printf("%v at %v", docs.Get(id).Key, p.Offsets)
	}
}
