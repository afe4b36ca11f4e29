package client_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/terrain-ouvert/datahub/pkg/client"
)

// Example demonstrates basic usage of the Datahub client
func Example() {
	c := client.NewClient(client.Config{
		BaseURL: "https://datahub.example.org",
	})

	list, err := c.Publications().List(context.Background(), &client.ListOptions{
		Sort:   []string{"-rating"},
		Filter: map[string]string{"category": "chasse"},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Found %d publications\n", list.TotalResults)
}

// ExamplePublicationService_Create demonstrates creating a publication with images
func ExamplePublicationService_Create() {
	c := client.NewClient(client.Config{
		BaseURL: "https://datahub.example.org",
		Token:   os.Getenv("DATAHUB_TOKEN"),
	})

	photo, err := os.ReadFile("brochet.jpg")
	if err != nil {
		log.Fatal(err)
	}

	pub, err := c.Publications().Create(context.Background(), client.CreatePublicationRequest{
		Title:       "Pêche à la mouche",
		Description: "Sortie du matin sur la Loue",
		Category:    "peche",
		RefLink:     "https://example.org/loue",
	}, client.Image{Name: "brochet.jpg", Data: photo})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Created %s with %d image(s)\n", pub.Slug, len(pub.Images))
}

// ExampleFavoriteService_Toggle demonstrates marking a publication as favorite
func ExampleFavoriteService_Toggle() {
	c := client.NewClient(client.Config{
		BaseURL: "https://datahub.example.org",
		Token:   os.Getenv("DATAHUB_TOKEN"),
	})

	res, err := c.Favorites().Toggle(context.Background(), "0b7a5c1e-5f0c-4a8e-9d59-1f2a3b4c5d6e")
	if err != nil {
		if apiErr, ok := err.(*client.APIError); ok && apiErr.IsNotFound() {
			fmt.Println("Publication no longer exists")
			return
		}
		log.Fatal(err)
	}

	fmt.Printf("Added: %v, favorites: %d\n", res.Added, len(res.Favorites))
}
