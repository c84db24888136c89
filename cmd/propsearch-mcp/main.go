package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PROPSEARCH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	// Only needed when the server runs with PROPSEARCH_AUTH_ENABLED.
	apiKey := os.Getenv("PROPSEARCH_API_KEY")

	c := newAPIClient(apiURL, apiKey)

	s := server.NewMCPServer(
		"propsearch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	propertySearchTool := mcp.NewTool("property_search",
		mcp.WithDescription("Search the live Delhi property registration portals. Urban searches query e-Search by party name or address and return the results table; rural searches query the revenue portal by khasra and return the record text. A screenshot of the results is attached when available. Each call drives a real browser and can take 20 seconds or more."),
		mcp.WithString("property_type",
			mcp.Required(),
			mcp.Description("'urban' or 'rural'"),
			mcp.Enum("urban", "rural"),
		),
		mcp.WithString("party_type",
			mcp.Description("Urban only: 'name' (default) searches by party name, 'address' by property address"),
			mcp.Enum("name", "address"),
		),
		mcp.WithString("sro", mcp.Description("Urban: Sub-Registrar Office, matched against the dropdown text")),
		mcp.WithString("party_name", mcp.Description("Urban by name: party name")),
		mcp.WithString("address", mcp.Description("Urban by address: property address")),
		mcp.WithString("reg_year", mcp.Description("Urban: registration year")),
		mcp.WithString("district", mcp.Description("Rural: district")),
		mcp.WithString("division", mcp.Description("Rural: division (tehsil)")),
		mcp.WithString("village", mcp.Description("Rural: village")),
		mcp.WithString("rectangle", mcp.Description("Rural: rectangle (murabba) number")),
		mcp.WithString("khasra", mcp.Description("Rural: khasra number")),
	)
	s.AddTool(propertySearchTool, handlePropertySearch(c))

	getPropertyTool := mcp.NewTool("get_property",
		mcp.WithDescription("Look up one property in the pre-scraped dataset by its property id."),
		mcp.WithString("property_id",
			mcp.Required(),
			mcp.Description("Property id from the dataset's datalink map"),
		),
	)
	s.AddTool(getPropertyTool, handleGetProperty(c))

	listRuralTool := mcp.NewTool("list_rural",
		mcp.WithDescription("List rural records from the pre-scraped dataset, optionally for one district."),
		mcp.WithString("district", mcp.Description("Exact district name")),
	)
	s.AddTool(listRuralTool, handleListRural(c))

	listUrbanTool := mcp.NewTool("list_urban",
		mcp.WithDescription("List urban registration records from the pre-scraped dataset, optionally for one registration year."),
		mcp.WithNumber("year", mcp.Description("Registration year, e.g. 2021")),
	)
	s.AddTool(listUrbanTool, handleListUrban(c))

	searchUrbanTool := mcp.NewTool("search_urban_records",
		mcp.WithDescription("Filter pre-scraped urban records by SRO, registration year and party name (first or second party). All filters are exact and optional."),
		mcp.WithString("sro", mcp.Description("Exact SRO name")),
		mcp.WithNumber("reg_year", mcp.Description("Registration year")),
		mcp.WithString("party_name", mcp.Description("Exact first or second party name")),
	)
	s.AddTool(searchUrbanTool, handleSearchUrbanRecords(c))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
