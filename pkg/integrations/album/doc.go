// Package album provides a page provider for a remote photo collection API.
//
// # Overview
//
// The API serves each collection as numbered pages of photos:
//
//	GET {base}/collections/{id}/photos?page=2&per_page=30&sort=views
//
//	{
//	  "photos": [
//	    {"id": "p1", "url": "https://...", "width": 4000, "height": 3000,
//	     "rotation": 90, "views": 1200, "title": "...", "attribution_url": "..."}
//	  ],
//	  "page": 2,
//	  "total_pages": 7,
//	  "has_more": true
//	}
//
// has_more is optional; when it is missing the client uses
// page < total_pages.
//
// # Usage
//
//	client, err := album.NewClient(album.Options{
//	    BaseURL: "https://photos.example.com/api/v1",
//	    Token:   os.Getenv("JUSTGRID_TOKEN"),
//	    Cache:   fc,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctrl, err := loader.New(loader.Options{
//	    ID:          "summer",
//	    Collections: []string{"summer-2024"},
//	    Provider:    client,
//	})
//
// Successful pages are cached for [cache.TTLPage] by default. Errors are
// returned as coded errors so that the loader can tell rate limits and
// expired sessions apart from broken collections.
//
// [cache.TTLPage]: github.com/matzehuels/justgrid/pkg/cache.TTLPage
package album
