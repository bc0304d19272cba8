package model

import "testing"

func TestCalculateProcurementBasic(t *testing.T) {
	est := CalculateProcurement(1000, 28, 2, 31, 550)

	if est.CompleteStrings != 35 {
		t.Errorf("expected 35 complete strings, got %d", est.CompleteStrings)
	}
	if est.LeftoverModules != 20 {
		t.Errorf("expected 20 leftover modules, got %d", est.LeftoverModules)
	}
	if est.ModulesToOrder != 1020 {
		t.Errorf("expected 1020 modules to order, got %d", est.ModulesToOrder)
	}
	// 1020 / 31 = 32.9 -> 33 pallets
	if est.Pallets != 33 {
		t.Errorf("expected 33 pallets, got %d", est.Pallets)
	}
	if est.OrderPowerW != 1020*550 {
		t.Errorf("expected order power %v, got %v", 1020*550, est.OrderPowerW)
	}
}

func TestCalculateProcurementRoundsSpareUp(t *testing.T) {
	est := CalculateProcurement(101, 0, 1, 0, 400)

	// 101 * 1.01 = 102.01 -> 103
	if est.ModulesToOrder != 103 {
		t.Errorf("expected 103 modules to order, got %d", est.ModulesToOrder)
	}
	if est.CompleteStrings != 0 || est.Pallets != 0 {
		t.Errorf("expected no strings or pallets without sizes, got %d/%d", est.CompleteStrings, est.Pallets)
	}
}

func TestCalculateProcurementNoPanels(t *testing.T) {
	est := CalculateProcurement(0, 28, 5, 31, 550)
	if est.ModulesToOrder != 0 || est.Pallets != 0 || est.OrderPowerW != 0 {
		t.Errorf("expected an empty order, got %+v", est)
	}
}

func TestCalculateProcurementNegativeSpare(t *testing.T) {
	est := CalculateProcurement(50, 0, -10, 0, 400)
	if est.ModulesToOrder != 50 {
		t.Errorf("negative spare must not shrink the order, got %d", est.ModulesToOrder)
	}
}
