package services

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// resourceLocks — мьютексы по ключу ресурса ("vehicle:12", "driver:7").
// Сериализуют критические секции "проверка, затем запись" для одного ресурса.
var resourceLocks sync.Map

func lockResource(kind string, id uint) *sync.Mutex {
	key := fmt.Sprintf("%s:%d", kind, id)
	mu, _ := resourceLocks.LoadOrStore(key, &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m
}

// lockVehicleDriver берет оба мьютекса в фиксированном порядке,
// чтобы исключить взаимную блокировку при конкурентном создании поездок.
func lockVehicleDriver(vehicleID, driverID uint) func() {
	vm := lockResource("vehicle", vehicleID)
	dm := lockResource("driver", driverID)
	return func() {
		dm.Unlock()
		vm.Unlock()
	}
}

// forUpdate добавляет SELECT ... FOR UPDATE там, где диалект его поддерживает.
// SQLite не знает FOR UPDATE, там транзакция и так блокирует базу целиком.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
