package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propsearch/dataset"
	"github.com/use-agent/propsearch/models"
)

const (
	welcomeMessage      = "Welcome to the Uddan Dataset API!"
	msgPropertyNotFound = "Property ID not found"
	msgDatasetMissing   = "Dataset not loaded"
)

// The dataset handlers take a nil store when the dataset file could not be
// loaded at startup; they then answer 503.

// DatasetRoot returns a handler for GET /.
func DatasetRoot() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
	}
}

// GetProperty returns a handler for GET /property/:id.
func GetProperty(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		raw, ok := ds.Property(c.Param("id"))
		if !ok {
			detail(c, http.StatusNotFound, msgPropertyNotFound)
			return
		}
		writeRaw(c, raw)
	})
}

// ListRural returns a handler for GET /rural?district=.
func ListRural(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		writeRaw(c, ds.Rural(c.Query("district")))
	})
}

// ListUrban returns a handler for GET /urban?year=.
func ListUrban(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		year, ok := intQuery(c, "year")
		if !ok {
			return
		}
		writeRaw(c, ds.Urban(year))
	})
}

// GetInput returns a handler for GET /input.
func GetInput(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		writeRaw(c, ds.Input())
	})
}

// GetOutput returns a handler for GET /output?category=.
func GetOutput(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		category := c.Query("category")
		raw, ok := ds.Output(category)
		if !ok {
			detail(c, http.StatusNotFound, category+" not found in output")
			return
		}
		writeRaw(c, raw)
	})
}

// GetDatalink returns a handler for GET /datalink?property_id=.
func GetDatalink(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		id := c.Query("property_id")
		if id == "" {
			writeRaw(c, ds.Datalink())
			return
		}
		raw, ok := ds.Property(id)
		if !ok {
			detail(c, http.StatusNotFound, msgPropertyNotFound)
			return
		}
		writeRaw(c, raw)
	})
}

// SearchUrbanRecords returns a handler for
// GET /search/urban?sro=&reg_year=&party_name=.
func SearchUrbanRecords(ds *dataset.Store) gin.HandlerFunc {
	return withDataset(ds, func(c *gin.Context) {
		year, ok := intQuery(c, "reg_year")
		if !ok {
			return
		}
		writeRaw(c, ds.SearchUrban(dataset.UrbanQuery{
			SRO:       c.Query("sro"),
			Year:      year,
			PartyName: c.Query("party_name"),
		}))
	})
}

func withDataset(ds *dataset.Store, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ds == nil {
			detail(c, http.StatusServiceUnavailable, msgDatasetMissing)
			return
		}
		h(c)
	}
}

// intQuery parses an optional integer query parameter. Absent means 0.
// On a malformed value it writes the 400 and returns false.
func intQuery(c *gin.Context, name string) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		detail(c, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func detail(c *gin.Context, status int, msg string) {
	c.JSON(status, models.DetailResponse{Detail: msg})
}

func writeRaw(c *gin.Context, raw json.RawMessage) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
