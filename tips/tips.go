// Package tips serves seasonal farming advice.
package tips

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/jane4246/coffee-advisory/db"
	"github.com/jane4246/coffee-advisory/globals"
	"github.com/jane4246/coffee-advisory/models"
	"github.com/jane4246/coffee-advisory/mq"
	"github.com/jane4246/coffee-advisory/rdx"
	"github.com/jane4246/coffee-advisory/utils"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const cachePrefix = "farming_tips:"

var cacheTTL = 2 * time.Hour

func Configure(ttl time.Duration) {
	if ttl > 0 {
		cacheTTL = ttl
	}
}

func cacheKey(season string) string {
	return cachePrefix + season
}

func GetFarmingTips(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	season := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("season")))
	key := cacheKey(season)

	if cached, ok := rdx.Default.Get(ctx, key); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(cached)
		return
	}

	list, err := db.Store.GetFarmingTips(ctx, season)
	if err != nil {
		globals.Logger.Error("fetch farming tips", zap.String("season", season), zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch farming tips")
		return
	}

	if b, err := json.Marshal(list); err == nil {
		rdx.Default.Set(ctx, key, b, cacheTTL)
	}
	w.Header().Set("X-Cache", "MISS")
	utils.RespondWithJSON(w, http.StatusOK, list)
}

func CreateFarmingTip(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in models.FarmingTipInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid farming tip data")
		return
	}
	in.Season = strings.ToLower(strings.TrimSpace(in.Season))
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := utils.Validate(in); err != nil {
		utils.RespondWithValidationError(w, "Invalid farming tip data", err)
		return
	}

	tip, err := db.Store.CreateFarmingTip(r.Context(), models.FarmingTip{
		Season:      in.Season,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
		Category:    in.Category,
	})
	if err != nil {
		globals.Logger.Error("create farming tip", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to create farming tip")
		return
	}

	rdx.Default.Delete(r.Context(), cacheKey(""), cacheKey(tip.Season))
	_ = mq.Emit("tip.created", mq.Index{EntityType: "farming_tip", Method: "POST", EntityId: tip.ID, ItemType: tip.Season})

	utils.RespondWithJSON(w, http.StatusCreated, tip)
}
