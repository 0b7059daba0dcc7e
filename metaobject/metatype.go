package metaobject

// Built-in type ids understood by the consuming runtime. Types outside this
// table are written as UnresolvedType | string index.
var builtinTypes = map[string]uint32{
	"bool":                    1,
	"int":                     2,
	"uint":                    3,
	"qlonglong":               4,
	"qulonglong":              5,
	"double":                  6,
	"QChar":                   7,
	"QVariantMap":             8,
	"QVariantList":            9,
	"QString":                 10,
	"QStringList":             11,
	"QByteArray":              12,
	"QBitArray":               13,
	"QDate":                   14,
	"QTime":                   15,
	"QDateTime":               16,
	"QUrl":                    17,
	"QLocale":                 18,
	"QRect":                   19,
	"QRectF":                  20,
	"QSize":                   21,
	"QSizeF":                  22,
	"QLine":                   23,
	"QLineF":                  24,
	"QPoint":                  25,
	"QPointF":                 26,
	"QRegExp":                 27,
	"QVariantHash":            28,
	"QEasingCurve":            29,
	"QUuid":                   30,
	"void*":                   31,
	"long":                    32,
	"short":                   33,
	"char":                    34,
	"ulong":                   35,
	"ushort":                  36,
	"uchar":                   37,
	"float":                   38,
	"QObject*":                39,
	"signed char":             40,
	"QVariant":                41,
	"QModelIndex":             42,
	"void":                    43,
	"QRegularExpression":      44,
	"QJsonValue":              45,
	"QJsonObject":             46,
	"QJsonArray":              47,
	"QJsonDocument":           48,
	"QByteArrayList":          49,
	"QPersistentModelIndex":   50,
	"std::nullptr_t":          51,
	"QCborSimpleType":         52,
	"QCborValue":              53,
	"QCborArray":              54,
	"QCborMap":                55,
	"QFont":                   64,
	"QPixmap":                 65,
	"QBrush":                  66,
	"QColor":                  67,
	"QPalette":                68,
	"QIcon":                   69,
	"QImage":                  70,
	"QPolygon":                71,
	"QRegion":                 72,
	"QBitmap":                 73,
	"QCursor":                 74,
	"QKeySequence":            75,
	"QPen":                    76,
	"QTextLength":             77,
	"QTextFormat":             78,
	"QMatrix":                 79,
	"QTransform":              80,
	"QMatrix4x4":              81,
	"QVector2D":               82,
	"QVector3D":               83,
	"QVector4D":               84,
	"QQuaternion":             85,
	"QPolygonF":               86,
	"QSizePolicy":             121,
	"qreal":                   6,
	"qint8":                   40,
	"quint8":                  37,
	"qint16":                  33,
	"quint16":                 36,
	"qint32":                  2,
	"quint32":                 3,
	"qint64":                  4,
	"quint64":                 5,
	"QList<QVariant>":         9,
	"QMap<QString,QVariant>":  8,
	"QHash<QString,QVariant>": 28,
	"QList<QByteArray>":       49,
}

// builtinNames maps ids back to their canonical spelling; aliases such as
// qint32 share an id with the canonical name.
var builtinNames = func() map[uint32]string {
	out := make(map[uint32]string, len(builtinTypes))
	for name, id := range builtinTypes {
		out[id] = name
	}
	out[2], out[3], out[4], out[5], out[6] = "int", "uint", "qlonglong", "qulonglong", "double"
	out[8], out[9], out[28], out[49] = "QVariantMap", "QVariantList", "QVariantHash", "QByteArrayList"
	out[33], out[36], out[37], out[40] = "short", "ushort", "uchar", "signed char"
	return out
}()

// BuiltinType returns the built-in type id for a normalized type name.
func BuiltinType(name string) (uint32, bool) {
	id, ok := builtinTypes[name]
	return id, ok
}

// BuiltinTypeName returns the canonical name of a built-in type id.
func BuiltinTypeName(id uint32) (string, bool) {
	name, ok := builtinNames[id]
	return name, ok
}
