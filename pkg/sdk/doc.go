// Package gplcatalog embeds the catalog engine in-process: WooCommerce sync,
// partitioned storage and fuzzy search, without the HTTP server.
//
//	client, _ := gplcatalog.New(ctx,
//	    gplcatalog.WithFileStore("./data"),
//	    gplcatalog.WithCatalog("https://shop.example.com", key, secret),
//	)
//	defer client.Close()
//
//	_ = client.Sync(ctx)
//	themes, _ := client.Search(ctx, gplcatalog.PartitionThemes, "astra")
//	p, _ := client.Get(themes[0].ID)
package gplcatalog
