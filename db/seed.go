package db

import (
	"context"
	"fmt"

	"github.com/jane4246/coffee-advisory/models"
)

var defaultTips = []models.FarmingTip{
	{Season: "flowering", Title: "Monitor for Pests", Description: "Check for coffee berry borer and antestia bugs", Priority: "high", Category: "pest_control"},
	{Season: "flowering", Title: "Reduce Watering", Description: "Flowers are sensitive to overwatering", Priority: "medium", Category: "watering"},
	{Season: "flowering", Title: "Apply Foliar Feed", Description: "Use potassium-rich fertilizer weekly", Priority: "high", Category: "fertilizing"},
	{Season: "rainy", Title: "Spray Against Berry Disease", Description: "Apply copper fungicide before the long rains set in", Priority: "high", Category: "pest_control"},
	{Season: "rainy", Title: "Clear Drainage Channels", Description: "Standing water around roots encourages wilt", Priority: "medium", Category: "watering"},
	{Season: "harvest", Title: "Pick Ripe Cherries Only", Description: "Selective picking keeps borer populations down", Priority: "high", Category: "pest_control"},
	{Season: "dry", Title: "Prune After Harvest", Description: "Remove old and diseased stems to open the canopy", Priority: "medium", Category: "pruning"},
	{Season: "dry", Title: "Mulch the Rows", Description: "A thick mulch layer keeps soil moisture through the dry months", Priority: "low", Category: "watering"},
}

var defaultContacts = []models.EmergencyContact{
	{Name: "Agricultural Extension", Organization: "Nandi County Office", PhoneNumber: "+254-700-123-456", ContactType: "extension", IsActive: "true"},
	{Name: "Farmer Cooperative", Organization: "Local support group", PhoneNumber: "+254-700-234-567", ContactType: "cooperative", IsActive: "true"},
	{Name: "Veterinary Services", Organization: "Plant disease emergency", PhoneNumber: "+254-700-345-678", ContactType: "veterinary", IsActive: "true"},
}

// Seed inserts the default tips and contacts into empty collections.
func Seed(ctx context.Context, s Storage) error {
	tips, err := s.GetFarmingTips(ctx, "")
	if err != nil {
		return fmt.Errorf("list tips: %w", err)
	}
	if len(tips) == 0 {
		for _, t := range defaultTips {
			if _, err := s.CreateFarmingTip(ctx, t); err != nil {
				return fmt.Errorf("seed tip %q: %w", t.Title, err)
			}
		}
	}

	contacts, err := s.GetEmergencyContacts(ctx)
	if err != nil {
		return fmt.Errorf("list contacts: %w", err)
	}
	if len(contacts) == 0 {
		for _, c := range defaultContacts {
			if _, err := s.CreateEmergencyContact(ctx, c); err != nil {
				return fmt.Errorf("seed contact %q: %w", c.Name, err)
			}
		}
	}
	return nil
}
