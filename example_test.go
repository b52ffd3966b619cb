package oaepub_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/simp-lee/oaepub"
	"github.com/simp-lee/oaepub/config"
	"github.com/simp-lee/oaepub/epub"
)

func ExampleConverter_ConvertFile() {
	dir, err := os.MkdirTemp("", "oaepub-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.OutputDir = dir

	c := oaepub.New(cfg)
	res, err := c.ConvertFile(context.Background(), "testdata/frontiers_article.xml")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(filepath.Base(res.Output))
	fmt.Println(res.Publisher)

	book, err := epub.Open(res.Output)
	if err != nil {
		log.Fatal(err)
	}
	defer book.Close()
	fmt.Println(book.Metadata().Title)
	// Output:
	// fpsyg.2011.00042.epub
	// frontiers
	// Attention and Memory in Everyday Tasks
}

func ExampleConverter_ConvertBatch() {
	dir, err := os.MkdirTemp("", "oaepub-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cfg := config.Default()
	cfg.OutputDir = dir

	results := oaepub.New(cfg).ConvertBatch(context.Background(), []string{
		"testdata/frontiers_article.xml",
		"testdata/missing.xml",
	})
	for _, r := range results {
		fmt.Println(filepath.Base(r.Input), r.OK())
	}
	fmt.Println(len(oaepub.Failed(results)), "failed")
	// Output:
	// frontiers_article.xml true
	// missing.xml false
	// 1 failed
}

func ExampleReadOrderFile() {
	dir, err := os.MkdirTemp("", "oaepub-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	name := filepath.Join(dir, "order.txt")
	if err := os.WriteFile(name, []byte("# reading order\nsecond.xml\nfirst.xml\n"), 0o644); err != nil {
		log.Fatal(err)
	}
	inputs, err := oaepub.ReadOrderFile(name)
	if err != nil {
		log.Fatal(err)
	}
	for _, in := range inputs {
		fmt.Println(filepath.Base(in))
	}
	// Output:
	// second.xml
	// first.xml
}
