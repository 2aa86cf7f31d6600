package migration

import (
	"fmt"
	"log"

	"WasteGuard-Backend/entities"

	"gorm.io/gorm"
)

// daysLeftView derives days_left at read time. CEIL over a date
// difference keeps "expires today" at 0 and "expires tomorrow" at 1.
const daysLeftView = `
CREATE OR REPLACE VIEW products_with_days_left AS
SELECT p.*,
       CEIL(EXTRACT(EPOCH FROM (p.expiry_date::timestamp - date_trunc('day', now()))) / 86400)::integer AS days_left
FROM products p;
`

// markProductAsUsed atomically decrements quantity (deleting the row at
// zero), appends the usage history snapshot and updates the aggregate
// statistics. Passing NULL quantity uses the full remaining amount, and
// anything beyond the remaining amount is clamped to it, so using "more
// than is left" removes the product instead of erroring.
const markProductAsUsed = `
CREATE OR REPLACE FUNCTION mark_product_as_used(
    p_product_id uuid,
    p_quantity_used integer DEFAULT NULL,
    p_usage_notes text DEFAULT NULL
) RETURNS void AS $$
DECLARE
    v_product products%ROWTYPE;
    v_used integer;
    v_days_left integer;
BEGIN
    SELECT * INTO v_product FROM products WHERE id = p_product_id FOR UPDATE;
    IF NOT FOUND THEN
        RAISE EXCEPTION 'product % not found', p_product_id;
    END IF;

    v_used := COALESCE(p_quantity_used, v_product.quantity);
    IF v_used < 1 THEN
        RAISE EXCEPTION 'invalid quantity_used %', v_used;
    END IF;
    v_used := LEAST(v_used, v_product.quantity);

    v_days_left := CEIL(EXTRACT(EPOCH FROM (v_product.expiry_date::timestamp - date_trunc('day', now()))) / 86400)::integer;

    INSERT INTO usage_histories (
        user_id, product_id, product_name, product_category,
        quantity_used, was_expired, days_before_expiry, usage_notes,
        created_at, updated_at
    ) VALUES (
        v_product.user_id, v_product.id, v_product.name, v_product.category,
        v_used, v_days_left <= 0, v_days_left, COALESCE(p_usage_notes, ''),
        now(), now()
    );

    IF v_used = v_product.quantity THEN
        DELETE FROM products WHERE id = p_product_id;
    ELSE
        UPDATE products SET quantity = quantity - v_used, updated_at = now()
        WHERE id = p_product_id;
    END IF;

    INSERT INTO user_statistics (
        user_id, total_products_used,
        products_used_before_expiry, products_used_after_expiry,
        created_at, updated_at
    ) VALUES (
        v_product.user_id, v_used,
        CASE WHEN v_days_left > 0 THEN v_used ELSE 0 END,
        CASE WHEN v_days_left <= 0 THEN v_used ELSE 0 END,
        now(), now()
    )
    ON CONFLICT (user_id) DO UPDATE SET
        total_products_used = user_statistics.total_products_used + EXCLUDED.total_products_used,
        products_used_before_expiry = user_statistics.products_used_before_expiry + EXCLUDED.products_used_before_expiry,
        products_used_after_expiry = user_statistics.products_used_after_expiry + EXCLUDED.products_used_after_expiry,
        updated_at = now();
END;
$$ LANGUAGE plpgsql;
`

// statsTriggers keep total/active product counters in step with the
// products table regardless of which code path mutates it.
const statsTriggers = `
CREATE OR REPLACE FUNCTION track_product_insert() RETURNS trigger AS $$
BEGIN
    INSERT INTO user_statistics (user_id, total_products_added, active_products, created_at, updated_at)
    VALUES (NEW.user_id, 1, 1, now(), now())
    ON CONFLICT (user_id) DO UPDATE SET
        total_products_added = user_statistics.total_products_added + 1,
        active_products = user_statistics.active_products + 1,
        updated_at = now();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

CREATE OR REPLACE FUNCTION track_product_delete() RETURNS trigger AS $$
BEGIN
    UPDATE user_statistics SET
        active_products = GREATEST(active_products - 1, 0),
        total_products_expired = total_products_expired +
            CASE WHEN OLD.expiry_date < date_trunc('day', now()) THEN 1 ELSE 0 END,
        updated_at = now()
    WHERE user_id = OLD.user_id;
    RETURN OLD;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS products_insert_stats ON products;
CREATE TRIGGER products_insert_stats AFTER INSERT ON products
    FOR EACH ROW EXECUTE FUNCTION track_product_insert();

DROP TRIGGER IF EXISTS products_delete_stats ON products;
CREATE TRIGGER products_delete_stats AFTER DELETE ON products
    FOR EACH ROW EXECUTE FUNCTION track_product_delete();
`

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Fatalf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Product{}); err != nil {
		log.Fatalf("Error migrating product database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Category{}); err != nil {
		log.Fatalf("Error migrating category database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.UsageHistory{}); err != nil {
		log.Fatalf("Error migrating usage history database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.UserStatistics{}); err != nil {
		log.Fatalf("Error migrating user statistics database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.DeviceToken{}); err != nil {
		log.Fatalf("Error migrating device token database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.AlertState{}); err != nil {
		log.Fatalf("Error migrating alert state database: %v", err)
		return err
	}

	if err := db.Exec(daysLeftView).Error; err != nil {
		log.Fatalf("Error creating days left view: %v", err)
		return err
	}
	if err := db.Exec(markProductAsUsed).Error; err != nil {
		log.Fatalf("Error creating mark_product_as_used: %v", err)
		return err
	}
	if err := db.Exec(statsTriggers).Error; err != nil {
		log.Fatalf("Error creating statistics triggers: %v", err)
		return err
	}

	fmt.Println("Database migration complete")
	return nil
}
